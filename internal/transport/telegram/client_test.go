package telegram

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/mkravets/contentgate/internal/chat"
)

func TestToMarkup(t *testing.T) {
	kb := chat.Keyboard{
		{chat.URLButton("📢 Channel", "https://t.me/ch")},
		{chat.DataButton("📥 Resend", "resend:movie42"), chat.DataButton("❌ Close", "close")},
	}

	m := toMarkup(kb)
	if len(m.InlineKeyboard) != 2 {
		t.Fatalf("rows = %d; want 2", len(m.InlineKeyboard))
	}

	link := m.InlineKeyboard[0][0]
	if link.URL == nil || *link.URL != "https://t.me/ch" || link.CallbackData != nil {
		t.Fatalf("expected URL button, got %+v", link)
	}

	if len(m.InlineKeyboard[1]) != 2 {
		t.Fatalf("second row should keep both buttons")
	}
	resend := m.InlineKeyboard[1][0]
	if resend.CallbackData == nil || *resend.CallbackData != "resend:movie42" || resend.URL != nil {
		t.Fatalf("expected data button, got %+v", resend)
	}
}

func TestChatRef(t *testing.T) {
	tests := []struct {
		chatID string
		want   tgbotapi.ChatConfigWithUser
	}{
		{"@mychannel", tgbotapi.ChatConfigWithUser{SuperGroupUsername: "@mychannel", UserID: 7}},
		{"-1001234567890", tgbotapi.ChatConfigWithUser{ChatID: -1001234567890, UserID: 7}},
	}
	for _, tt := range tests {
		if got := chatRef(tt.chatID, 7); got != tt.want {
			t.Errorf("chatRef(%q) = %+v; want %+v", tt.chatID, got, tt.want)
		}
	}
}
