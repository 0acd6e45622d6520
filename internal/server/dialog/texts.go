package dialog

// Literal commands. Matching is exact, after trimming surrounding spaces.
const (
	CmdRegister = "Регистрация"
	CmdLogin    = "Вход"
	CmdCreate   = "Создать метку"
	CmdShow     = "Показать метку"
	CmdDelete   = "Удалить метку"
	CmdList     = "Мои метки"
	CmdHelp     = "Справка"
	CmdCancel   = "Отмена"
)

const (
	textWelcome       = "Зарегистрируйтесь или войдите"
	textWelcomeBack   = "Вы вошли, выберите действие"
	textAskCreds      = "Введите имя и пароль через пробел"
	textReprompt      = "Эрмил вас не понял, введите еще раз"
	textNotUnderstood = "Эрмил вас не понял"
	textNameTaken     = "Имя занято, придумайте другое"
	textRegistered    = "Вы зарегистрировались, можете войти"
	textNoSuchUser    = "Такого пользователя нет, введите еще раз"
	textWrongPassword = "Пароль неверный, введите еще раз"
	textLoggedIn      = "Вы вошли"
	textNotLoggedIn   = "Вы не вошли"
	textAskCoords     = "Введите широту и долготу через пробел"
	textAskDesc       = "Введите описание"
	textCreated       = "Метка %s создана"
	textAskID         = "Введите id метки"
	textNoSuchMarker  = "Такой метки нет, введите еще раз"
	textForeignMarker = "Нет доступа к этой метке, введите еще раз"
	textMapCaption    = "Карта"
	textDeleted       = "Метка удалена"
	textNoMarkers     = "У вас нет закладок. Немного ошибся - меток"
	textCancelled     = "Действие отменено"
	textFailure       = "Что-то пошло не так, попробуйте еще раз"
	textCreateLost    = "Метка не сохранилась, создайте ее заново"

	textHelp = "Эрмил хранит метки на карте.\n" +
		"Сначала зарегистрируйтесь или войдите.\n" +
		"«Создать метку»: введите широту и долготу через пробел, затем описание.\n" +
		"«Показать метку» и «Удалить метку»: введите id метки.\n" +
		"«Мои метки»: список ваших меток.\n" +
		"«Отмена» прерывает текущий ввод."
)
