package common

// SkillName is how the skill refers to itself in replies.
const SkillName = "Эрмил"

// RequestIDHeader carries the request id through the webhook and providers.
const RequestIDHeader = "X-Request-Id"
