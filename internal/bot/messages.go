package bot

// User-facing texts. Texts sent with HTML parse mode must keep markup balanced.
const (
	msgStart = "Привіт, %s! 👋\n\n" +
		"Надішли /rozklad, щоб отримати розклад для групи <b>%s</b>.\n" +
		"Іншу групу можна обрати так: <code>/group КН-21</code>."

	msgInfo = "Я бот, що показує розклад занять Львівської політехніки.\n\n" +
		"/start - привітатися\n" +
		"/rozklad [група] - показати розклад (наприклад, <code>/rozklad АВ-11</code>)\n" +
		"/group [група] - запам'ятати групу\n" +
		"/info - показати це повідомлення\n" +
		"/support - підтримка автора"

	msgUnknownCommand = "Невідома команда. Список команд: /info"
	msgHint           = "Щоб отримати розклад, надішліть /rozklad або <code>розклад АВ-11</code>. Усі команди: /info"
	msgAskGroup       = "Надішліть назву групи, наприклад <code>АВ-11</code>."
	msgBadGroup       = "❗ Не схоже на назву групи. Приклад: <code>АВ-11</code>."
	msgGroupSaved     = "✅ Групу <b>%s</b> збережено. Надішліть /rozklad, щоб побачити розклад."

	msgChooseSubgroup = "Група <b>%s</b>.\nОберіть підгрупу:"
	msgChooseWeek     = "Група <b>%s</b>, %s.\nОберіть тиждень:"
	msgSearching      = "🔎 Шукаю розклад для групи <b>%s</b>… ⏳"
	msgChooseDay      = "Оберіть день:"
	msgNoLessonsDay   = "У цей день занять немає."

	msgSessionExpired = "⌛ Меню застаріло. Надішліть /rozklad, щоб почати знову."
	msgStaleButton    = "Ця кнопка більше не діє."
	msgThrottled      = "⏳ Забагато запитів. Зачекайте кілька секунд."
)

// Button labels.
const (
	btnSubgroup1   = "1 підгрупа"
	btnSubgroup2   = "2 підгрупа"
	btnWholeGroup  = "Вся група"
	btnNumerator   = "Чисельник"
	btnDenominator = "Знаменник"
	btnAllWeeks    = "Всі тижні"
	btnWholeWeek   = "📅 Весь тиждень"
	btnBack        = "« Назад"
	btnBackToDays  = "« До днів"
	btnFilters     = "⚙️ Змінити фільтри"
	btnRetry       = "🔁 Спробувати ще раз"
)
