package telegram

// Update es el cuerpo que Telegram envía al webhook. Solo se modelan los
// campos que el servicio consume; el resto se ignora.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message,omitempty"`
}

type Message struct {
	MessageID int64  `json:"message_id"`
	From      *User  `json:"from,omitempty"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text,omitempty"`
}

type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

type Chat struct {
	ID int64 `json:"id"`
}

// InlineKeyboardMarkup arma el teclado inline del mensaje de login.
type InlineKeyboardMarkup struct {
	InlineKeyboard [][]InlineKeyboardButton `json:"inline_keyboard"`
}

type InlineKeyboardButton struct {
	Text string `json:"text"`
	URL  string `json:"url,omitempty"`
}

// SendMessage son los parámetros de un envío de texto.
type SendMessage struct {
	ChatID                string
	Text                  string
	ParseMode             string
	Silent                bool
	DisableWebPagePreview bool
	ReplyMarkup           *InlineKeyboardMarkup
}

// SendPhoto son los parámetros de un envío de foto por URL.
type SendPhoto struct {
	ChatID    string
	PhotoURL  string
	Caption   string
	ParseMode string
}
