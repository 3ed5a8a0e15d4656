// Package i18n holds the static localized text tables and the
// label-to-action mapping used to interpret menu button presses.
package i18n

// Lang is a supported language code.
type Lang string

const (
	LangUz     Lang = "uz"
	LangUzCyrl Lang = "uz_cyrl"
	LangEn     Lang = "en"
	LangRu     Lang = "ru"

	// DefaultLang is used whenever a user has no stored preference or a
	// translation is missing.
	DefaultLang = LangUz
)

// Normalize maps arbitrary input to a supported language code.
func Normalize(lang string) Lang {
	switch Lang(lang) {
	case LangUz, LangUzCyrl, LangEn, LangRu:
		return Lang(lang)
	}
	return DefaultLang
}

// Action is an abstract control action recovered from a button label.
type Action string

const (
	ActionMenuAbout    Action = "menu_about"
	ActionMenuContact  Action = "menu_contact"
	ActionMenuLocation Action = "menu_location"
	ActionMenuJobs     Action = "menu_jobs"
	ActionMenuLang     Action = "menu_lang"
	ActionBack         Action = "back"
	ActionCancel       Action = "cancel"
	ActionSkip         Action = "skip"
	ActionSendContact  Action = "send_contact"
	ActionLangUz       Action = "lang_uz"
	ActionLangUzCyrl   Action = "lang_uz_cyrl"
	ActionLangEn       Action = "lang_en"
	ActionLangRu       Action = "lang_ru"
	ActionMenuAdmin    Action = "menu_admin"
	ActionAdminApps    Action = "admin_apps"
	ActionAdminSearch  Action = "admin_search"
	ActionAdminStats   Action = "admin_stats"
	ActionOtherPos     Action = "other_pos"
)

// MsgKey names one localized message.
type MsgKey string

const (
	MsgWelcome           MsgKey = "msg_welcome"
	MsgAbout             MsgKey = "msg_about"
	MsgContact           MsgKey = "msg_contact"
	MsgLocation          MsgKey = "msg_location"
	MsgAskName           MsgKey = "msg_ask_name"
	MsgAskPhone          MsgKey = "msg_ask_phone"
	MsgAskPosition       MsgKey = "msg_ask_position"
	MsgAskPositionManual MsgKey = "msg_ask_position_manual"
	MsgAskExperience     MsgKey = "msg_ask_exp"
	MsgAskCV             MsgKey = "msg_ask_cv"
	MsgApplied           MsgKey = "msg_applied"
	MsgCanceled          MsgKey = "msg_canceled"
	MsgInvalidName       MsgKey = "msg_invalid_name"
	MsgInvalidPhone      MsgKey = "msg_invalid_phone"
	MsgInvalidExperience MsgKey = "msg_invalid_exp"
	MsgInvalidCV         MsgKey = "msg_invalid_cv"
	MsgSelectLang        MsgKey = "msg_select_lang"
	MsgLangChanged       MsgKey = "msg_lang_changed"
	MsgChooseMenu        MsgKey = "msg_choose_menu"
	MsgAdminPanel        MsgKey = "admin_panel"
	MsgAdminSearchAsk    MsgKey = "admin_search_ask"
	MsgAdminNoResults    MsgKey = "admin_no_results"
	MsgAdminNoApps       MsgKey = "admin_no_apps"
	MsgAdminStoreError   MsgKey = "admin_store_error"
	MsgAdminAnalyzing    MsgKey = "admin_analyzing"
	MsgAdminNoData       MsgKey = "admin_no_data"
)

var labels = map[Action]map[Lang]string{
	ActionMenuAbout:    {LangUz: "🏫 Biz haqimizda", LangUzCyrl: "🏫 Биз ҳақимизда", LangEn: "🏫 About us", LangRu: "🏫 О нас"},
	ActionMenuContact:  {LangUz: "💬 Biz bilan bog'lanish", LangUzCyrl: "💬 Биз билан боғланиш", LangEn: "💬 Contact us", LangRu: "💬 Связаться"},
	ActionMenuLocation: {LangUz: "📍 Manzilimiz", LangUzCyrl: "📍 Манзилимиз", LangEn: "📍 Our Location", LangRu: "📍 Наш адрес"},
	ActionMenuJobs:     {LangUz: "💼 Bo'sh ish o'rinlari", LangUzCyrl: "💼 Бўш иш ўринлари", LangEn: "💼 Job vacancies", LangRu: "💼 Вакансии"},
	ActionMenuLang:     {LangUz: "🌐 Tilni almashtirish", LangUzCyrl: "🌐 Тилни алмаштириш", LangEn: "🌐 Change language", LangRu: "🌐 Сменить язык"},
	ActionBack:         {LangUz: "⬅️ Orqaga", LangUzCyrl: "⬅️ Орқага", LangEn: "⬅️ Back", LangRu: "⬅️ Назад"},
	ActionCancel:       {LangUz: "❌ Bekor qilish", LangUzCyrl: "❌ Бекор қилиш", LangEn: "❌ Cancel", LangRu: "❌ Отмена"},
	ActionSkip:         {LangUz: "O'tkazib yuborish", LangUzCyrl: "Ўтказиб юбориш", LangEn: "Skip", LangRu: "Пропустить"},
	ActionSendContact:  {LangUz: "Kontaktni yuborish", LangUzCyrl: "Контактни юбориш", LangEn: "Send contact", LangRu: "Отправить контакт"},
	ActionLangUz:       {LangUz: "🇺🇿 Lotin", LangUzCyrl: "🇺🇿 Лотин", LangEn: "🇺🇿 Latin", LangRu: "🇺🇿 Латиница"},
	ActionLangUzCyrl:   {LangUz: "🇺🇿 Kiril", LangUzCyrl: "🇺🇿 Кирил", LangEn: "🇺🇿 Cyrillic", LangRu: "🇺🇿 Кириллица"},
	ActionLangEn:       {LangUz: "🇬🇧 ENG"},
	ActionLangRu:       {LangUz: "🇷🇺 RUS"},
	ActionMenuAdmin:    {LangUz: "🔐 Admin"},
	ActionAdminApps:    {LangUz: "📨 Arizalar", LangUzCyrl: "📨 Аризалар", LangEn: "📨 Applications", LangRu: "📨 Заявки"},
	ActionAdminSearch:  {LangUz: "🔎 Lavozim bo'yicha qidirish", LangUzCyrl: "🔎 Лавозим бўйича қидириш", LangEn: "🔎 Search by position", LangRu: "🔎 Поиск по должности"},
	ActionAdminStats:   {LangUz: "📊 Statistika (30 kun)", LangUzCyrl: "📊 Статистика (30 кун)", LangEn: "📊 Statistics (30 days)", LangRu: "📊 Статистика (30 дней)"},
	ActionOtherPos:     {LangUz: "💡 Boshqa lavozim", LangUzCyrl: "💡 Бошқа лавозим", LangEn: "💡 Other position", LangRu: "💡 Другая должность"},
}

var messages = map[MsgKey]map[Lang]string{
	MsgWelcome: {
		LangUz:     "<b>Assalomu alaykum!</b> 😊\n\nAl-Xorazmiy xususiy maktabiga xush kelibsiz! 🏫✨\n\nKerakli bo'limni tanlang: 👇",
		LangUzCyrl: "<b>Ассалому алайкум!</b> 😊\n\nАл-Хоразмий хусусий мактабига хуш келибсиз! 🏫✨\n\nКеракли бўлимни танланг: 👇",
		LangEn:     "<b>Hello!</b> 😊\n\nWelcome to Al-Khwarizmi private school! 🏫✨\n\nPlease choose a section: 👇",
		LangRu:     "<b>Здравствуйте!</b> 😊\n\nДобро пожаловать в частную школу Аль-Хорезми! 🏫✨\n\nПожалуйста, выберите раздел: 👇",
	},
	MsgAbout: {
		LangUz:     "<b>🏫 Al-Xorazmiy maktabi haqida:</b>\n\n🎓 1-11 sinflar va maxsus tayyorlov kurslari.\n📚 Chuqurlashtirilgan fanlar: Ingliz tili, Matematika, IT va Arab tili.\n⏰ Darslar 8:30 – 17:00, 6 kunlik o'quv tizimi.",
		LangUzCyrl: "<b>🏫 Ал-Хоразмий мактаби ҳақида:</b>\n\n🎓 1-11 синфлар ва махсус тайёрлов курслари.\n📚 Чуқурлаштирилган фанлар: Инглиз тили, Математика, IT ва Араб тили.\n⏰ Дарслар 8:30 – 17:00, 6 кунлик ўқув тизими.",
		LangEn:     "<b>🏫 About Al-Khwarizmi School:</b>\n\n🎓 Grades 1-11 and preparation courses.\n📚 Advanced subjects: English, Math, IT and Arabic.\n⏰ Classes 8:30 AM – 5:00 PM, 6-day school week.",
		LangRu:     "<b>🏫 О школе Аль-Хорезми:</b>\n\n🎓 1-11 классы и подготовительные курсы.\n📚 Углубленные предметы: английский, математика, IT и арабский.\n⏰ Занятия 8:30 – 17:00, 6-дневная учебная неделя.",
	},
	MsgContact: {
		LangUz:     "<b>📞 Biz bilan bog'lanish:</b>\n\n☎️ <b>Telefon:</b> +998692100007\n👨‍💻 <b>Telegram:</b> @Onlineeaz",
		LangUzCyrl: "<b>📞 Биз билан боғланиш:</b>\n\n☎️ <b>Телефон:</b> +998692100007\n👨‍💻 <b>Telegram:</b> @Onlineeaz",
		LangEn:     "<b>📞 Contact us:</b>\n\n☎️ <b>Phone:</b> +998692100007\n👨‍💻 <b>Telegram:</b> @Onlineeaz",
		LangRu:     "<b>📞 Связаться с нами:</b>\n\n☎️ <b>Телефон:</b> +998692100007\n👨‍💻 <b>Telegram:</b> @Onlineeaz",
	},
	MsgLocation: {
		LangUz:     "<b>📍 Manzilimiz:</b>\n\nNamangan viloyati, Namangan tumani.\n📍 https://goo.gl/maps/T71FNWrrKkMFVmvU9",
		LangUzCyrl: "<b>📍 Манзилимиз:</b>\n\nНаманган вилояти, Наманган тумани.\n📍 https://goo.gl/maps/T71FNWrrKkMFVmvU9",
		LangEn:     "<b>📍 Our Location:</b>\n\nNamangan region, Namangan district.\n📍 https://goo.gl/maps/T71FNWrrKkMFVmvU9",
		LangRu:     "<b>📍 Наш адрес:</b>\n\nНаманганская область, Наманганский район.\n📍 https://goo.gl/maps/T71FNWrrKkMFVmvU9",
	},
	MsgAskName: {
		LangUz:     "<b>Bo'sh ish o'rinlari</b>\n\nIltimos, ism va familiyangizni kiriting:",
		LangUzCyrl: "<b>Бўш иш ўринлари</b>\n\nИлтимос, исм ва фамилиянгизни киритинг:",
		LangEn:     "<b>Job vacancies</b>\n\nPlease enter your first and last name:",
		LangRu:     "<b>Вакансии</b>\n\nПожалуйста, введите ваше имя и фамилию:",
	},
	MsgAskPhone: {
		LangUz:     "Telefon raqamingizni yuboring (tugmani bosing):",
		LangUzCyrl: "Телефон рақамингизни юборинг (тугмани босинг):",
		LangEn:     "Send your phone number (click the button):",
		LangRu:     "Отправьте свой номер телефона (нажмите кнопку):",
	},
	MsgAskPosition: {
		LangUz:     "Qaysi bo'limga topshirmoqchisiz? (Tanlang):",
		LangUzCyrl: "Қайси бўлимга топширмоқчисиз? (Танланг):",
		LangEn:     "Which section are you applying for? (Choose):",
		LangRu:     "В какой раздел вы подаете заявку? (Выберите):",
	},
	MsgAskPositionManual: {
		LangUz:     "Iltimos, mutaxassisligingiz yoki lavozim turini kiriting (Masalan: Matematika o'qituvchisi):",
		LangUzCyrl: "Илтимос, мутахассислигингиз ёки лавозим турини киритинг (Масалан: Математика ўқитувчиси):",
		LangEn:     "Please enter your specialization or position type (Example: Math Teacher):",
		LangRu:     "Пожалуйста, введите вашу специализацию или тип должности (Например: Учитель математики):",
	},
	MsgAskExperience: {
		LangUz:     "Ish tajribangiz haqida qisqacha ma'lumot bering:",
		LangUzCyrl: "Иш тажрибангиз ҳақида қисқача маълумот беринг:",
		LangEn:     "Provide brief information about your work experience:",
		LangRu:     "Кратко расскажите о своем опыте работы:",
	},
	MsgAskCV: {
		LangUz:     "Rezyume (PDF yoki Rasm) yuboring yoki 'O'tkazib yuborish' tugmasini bosing:",
		LangUzCyrl: "Резюме (PDF ёки Расм) юборинг ёки 'Ўтказиб юбориш' тугмасини босинг:",
		LangEn:     "Send your resume (PDF or Image) or click 'Skip':",
		LangRu:     "Отправьте резюме (PDF или фото) или нажмите 'Пропустить':",
	},
	MsgApplied: {
		LangUz:     "✅ <b>Arizangiz HR bo'limiga yuborildi.</b> Siz bilan tez orada bog'lanamiz.",
		LangUzCyrl: "✅ <b>Аризангиз HR бўлимига юборилди.</b> Сиз билан тез орада боғланамиз.",
		LangEn:     "✅ <b>Your application has been sent to the HR department.</b> We will contact you soon.",
		LangRu:     "✅ <b>Ваша заявка отправлена в отдел кадров.</b> Мы свяжемся с вами в ближайшее время.",
	},
	MsgCanceled: {
		LangUz:     "Ariza topshirish bekor qilindi.",
		LangUzCyrl: "Ариза топшириш бекор қилинди.",
		LangEn:     "Application canceled.",
		LangRu:     "Подача заявки отменена.",
	},
	MsgInvalidName: {
		LangUz:     "Iltimos, ism va familiyangizni to'liq yozing (Masalan: Ali Valiyev):",
		LangUzCyrl: "Илтимос, исм ва фамилиянгизни тўлиқ ёзинг (Масалан: Али Валиев):",
		LangEn:     "Please write your full name (Example: Ali Valiyev):",
		LangRu:     "Пожалуйста, напишите свое полное имя (Например: Али Валиев):",
	},
	MsgInvalidPhone: {
		LangUz:     "Iltimos, telefon raqamingizni tugma orqali yuboring yoki yozing:",
		LangUzCyrl: "Илтимос, телефон рақамингизни тугма орқали юборинг ёки ёзинг:",
		LangEn:     "Please send your phone number via button or type it:",
		LangRu:     "Пожалуйста, отправьте свой номер телефона через кнопку или напишите его:",
	},
	MsgInvalidExperience: {
		LangUz:     "Tajribangiz haqida batafsilroq yozing:",
		LangUzCyrl: "Тажрибангиз ҳақида батафсилроқ ёзинг:",
		LangEn:     "Write more about your experience:",
		LangRu:     "Напишите подробнее о своем опыте:",
	},
	MsgInvalidCV: {
		LangUz:     "Iltimos, fayl yuboring yoki tugmani bosing.",
		LangUzCyrl: "Илтимос, файл юборинг ёки тугмани босинг.",
		LangEn:     "Please send a file or click the button.",
		LangRu:     "Пожалуйста, отправьте файл или нажмите кнопку.",
	},
	MsgSelectLang: {
		LangUz:     "Tilni tanlang:",
		LangUzCyrl: "Тилни танланг:",
		LangEn:     "Choose language:",
		LangRu:     "Выберите язык:",
	},
	MsgLangChanged: {
		LangUz:     "✅ Til o'zgartirildi.",
		LangUzCyrl: "✅ Тил ўзгартирилди.",
		LangEn:     "✅ Language changed.",
		LangRu:     "✅ Язык изменен.",
	},
	MsgChooseMenu: {
		LangUz:     "Iltimos, pastdagi menyudan birini tanlang.",
		LangUzCyrl: "Илтимос, пастдаги менюдан бирини танланг.",
		LangEn:     "Please choose from the menu below.",
		LangRu:     "Пожалуйста, выберите из меню ниже.",
	},
	MsgAdminPanel: {
		LangUz:     "Admin panel:",
		LangUzCyrl: "Админ панел:",
		LangEn:     "Admin panel:",
		LangRu:     "Админ панель:",
	},
	MsgAdminSearchAsk: {
		LangUz:     "Lavozim nomini kiriting:",
		LangUzCyrl: "Лавозим номини киритинг:",
		LangEn:     "Enter the position name:",
		LangRu:     "Введите название должности:",
	},
	MsgAdminNoResults: {
		LangUz:     "Natija topilmadi.",
		LangUzCyrl: "Натижа топилмади.",
		LangEn:     "No results found.",
		LangRu:     "Результатов не найдено.",
	},
	MsgAdminNoApps: {
		LangUz:     "Hozircha arizalar topilmadi.",
		LangUzCyrl: "Ҳозирча аризалар топилмади.",
		LangEn:     "No applications found yet.",
		LangRu:     "Заявок пока не найдено.",
	},
	MsgAdminStoreError: {
		LangUz:     "Ma'lumotlar bazasi ulanmagan.",
		LangUzCyrl: "Маълумотлар базаси уланмаган.",
		LangEn:     "Store not connected.",
		LangRu:     "Хранилище не подключено.",
	},
	MsgAdminAnalyzing: {
		LangUz:     "📊 Ma'lumotlar tahlil qilinmoqda, iltimos kuting...",
		LangUzCyrl: "📊 Маълумотлар таҳлил қилинмоқда, илтимос кутинг...",
		LangEn:     "📊 Analyzing data, please wait...",
		LangRu:     "📊 Данные анализируются, пожалуйста, подождите...",
	},
	MsgAdminNoData: {
		LangUz:     "❌ Ushbu davr uchun ma'lumotlar mavjud emas.",
		LangUzCyrl: "❌ Ушбу давр учун маълумотлар мавжуд эмас.",
		LangEn:     "❌ No data available for this period.",
		LangRu:     "❌ Нет данных за этот период.",
	},
}

// positions are the selectable job categories, laid out in keyboard rows.
var positions = map[Lang][][]string{
	LangUz: {
		{"🏢 Boshqaruv", "👨‍🏫 O'qituvchi"},
		{"🧹 Tozalik hodimi", "🛡 Xavfsizlik / Qo'riqlash"},
		{"💡 Boshqa lavozim"},
	},
	LangUzCyrl: {
		{"🏢 Бошқарув", "👨‍🏫 Ўқитувчи"},
		{"🧹 Тозалик ҳодими", "🛡 Хавфсизлик / Қўриқлаш"},
		{"💡 Бошқа лавозим"},
	},
	LangEn: {
		{"🏢 Management", "👨‍🏫 Teacher"},
		{"🧹 Cleaning staff", "🛡 Security"},
		{"💡 Other position"},
	},
	LangRu: {
		{"🏢 Управление", "👨‍🏫 Учитель"},
		{"🧹 Уборка", "🛡 Безопасность"},
		{"💡 Другая должность"},
	},
}

// Catalog resolves labels, messages and reverse label lookups. The
// reverse index is built once at construction instead of scanning the
// whole table per message.
type Catalog struct {
	byLabel map[string]Action
}

func NewCatalog() *Catalog {
	byLabel := make(map[string]Action)
	for action, translations := range labels {
		for _, label := range translations {
			byLabel[label] = action
		}
	}
	return &Catalog{byLabel: byLabel}
}

// Label returns the button text for an action in the given language,
// falling back to the default language.
func (c *Catalog) Label(action Action, lang Lang) string {
	translations, ok := labels[action]
	if !ok {
		return string(action)
	}
	if label, ok := translations[lang]; ok {
		return label
	}
	if label, ok := translations[DefaultLang]; ok {
		return label
	}
	return string(action)
}

// Message returns the localized message text, falling back to the
// default language.
func (c *Catalog) Message(key MsgKey, lang Lang) string {
	translations, ok := messages[key]
	if !ok {
		return string(key)
	}
	if msg, ok := translations[lang]; ok {
		return msg
	}
	return translations[DefaultLang]
}

// ActionFor recovers the abstract action behind a button label. Labels
// from every language match, so a stale keyboard in another language
// still resolves.
func (c *Catalog) ActionFor(text string) (Action, bool) {
	action, ok := c.byLabel[text]
	return action, ok
}

// Positions returns the category keyboard rows for a language.
func (c *Catalog) Positions(lang Lang) [][]string {
	if rows, ok := positions[lang]; ok {
		return rows
	}
	return positions[DefaultLang]
}
