package telegram

const (
	msgStart = "👋 Привет! Я Budgetify — твой ассистент по учёту расходов.\n\n" +
		"Отправь мне голосовое сообщение с тратой, например:\n" +
		"250 метро\nили\n127 рублей 25 копеек шоколадка.\n\n" +
		"Можно писать и текстом. Итоги за месяц: /stats\n\n" +
		"❗ Чтобы сохранять расходы в Яндекс.Диск, нужно авторизоваться: /login"

	msgHelp = "Как записать расход:\n" +
		"• 250 метро\n" +
		"• такси 1000 р\n" +
		"• 127 рублей 25 копеек шоколадка\n" +
		"• 2 тысячи 100 рублей продукты\n\n" +
		"Команды:\n" +
		"/stats — расходы за текущий месяц\n" +
		"/login — подключить Яндекс.Диск\n" +
		"/code <код> — завершить вход, если Яндекс показал код"

	msgLogin          = "🔑 Для авторизации перейдите по ссылке:\n%s\n\nЕсли после входа Яндекс покажет код, отправьте его так: /code <код>"
	msgLoginDisabled  = "Сохранение на Яндекс.Диск не настроено на этом сервере."
	msgCodeMissing    = "Укажите код из Яндекса: /code 1234567"
	msgAuthOK         = "✅ Авторизация прошла успешно! Теперь можете отправлять голосовые сообщения с тратами."
	msgAuthFailed     = "❌ Ошибка авторизации. Попробуйте снова или проверьте код."
	msgLoginHint      = "\n\n❗ Таблица пока хранится только у меня. Чтобы сохранять её на Яндекс.Диск: /login"
	msgUnknownCommand = "Неизвестная команда. Используйте /help для списка доступных команд."

	msgVoiceFailed    = "❌ Не удалось обработать голосовое сообщение. Попробуйте ещё раз."
	msgVoiceEmpty     = "🤷 Не удалось разобрать речь. Попробуйте сказать чётче, например: «250 метро»."
	msgVoiceTooLong   = "⏱ Голосовое слишком длинное. Уложитесь в 30 секунд."
	msgRateLimited    = "⏳ Слишком много сообщений. Подождите минуту и попробуйте снова."
	msgUnsupported    = "Пришлите голосовое или текстовое сообщение с тратой, например: «250 метро»."
	msgStatsFailed    = "❌ Не удалось получить статистику. Попробуйте позже."
	msgRecordFailed   = "❌ Не удалось записать расход. Попробуйте ещё раз."
	msgEmptyInput     = "Сообщение пустое. Назовите сумму и на что потрачено, например: «250 метро»."
	msgNoAmount       = "🤔 Не нашёл сумму. Скажите, например: «250 рублей метро»."
	msgInvalidMinor   = "Копеек должно быть от 0 до 99. Например: «127 рублей 25 копеек шоколадка»."
	msgNoCategory     = "🤔 Не понял, на что потрачено. Добавьте категорию: «250 метро»."
	msgAmountOverflow = "Сумма слишком большая, проверьте её."

	msgDegenerateCategory = "Категория не может состоять только из слов вроде «рубли» или «тысячи». Например: «250 рублей такси»."
)
