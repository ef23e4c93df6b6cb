package telegram

import (
	"testing"

	"github.com/mymmrac/telego"

	"github.com/bdobrica/selene/internal/selene/pipeline"
)

func testClient() *Client {
	// White-box construction: mapping needs only the bot identity.
	return &Client{
		self: &telego.User{ID: 500, IsBot: true, FirstName: "Selene", Username: "selene_bot"},
	}
}

func TestEventFromMessage_PrivateChat(t *testing.T) {
	c := testClient()

	msg := &telego.Message{
		MessageID: 900,
		From:      &telego.User{ID: 7, FirstName: "Alice", Username: "alice"},
		Chat:      telego.Chat{ID: 7, Type: telego.ChatTypePrivate},
		Text:      "hola",
	}

	ev, ok := c.eventFromMessage(101, msg)
	if !ok {
		t.Fatal("expected message to map")
	}
	if ev.UpdateID != 101 || ev.MessageID != 900 || ev.ChatID != 7 {
		t.Errorf("ids = %+v", ev)
	}
	if ev.ChatType != pipeline.ChatTypePrivate {
		t.Errorf("ChatType = %q", ev.ChatType)
	}
	if ev.Sender.ID != 7 || ev.Sender.DisplayName != "Alice" || ev.Sender.Handle != "alice" {
		t.Errorf("Sender = %+v", ev.Sender)
	}
	if ev.ReplyTo != nil || ev.ReplyToBot {
		t.Errorf("unexpected reply metadata: %+v", ev)
	}
}

func TestEventFromMessage_GroupAndSupergroup(t *testing.T) {
	c := testClient()

	for _, chatType := range []string{telego.ChatTypeGroup, telego.ChatTypeSupergroup} {
		msg := &telego.Message{
			MessageID: 1,
			From:      &telego.User{ID: 7, FirstName: "Alice"},
			Chat:      telego.Chat{ID: -100, Type: chatType},
			Text:      "hi",
		}
		ev, ok := c.eventFromMessage(1, msg)
		if !ok {
			t.Fatalf("%s message did not map", chatType)
		}
		if ev.ChatType != pipeline.ChatTypeGroup {
			t.Errorf("%s mapped to %q, want group", chatType, ev.ChatType)
		}
	}
}

func TestEventFromMessage_ReplyToBot(t *testing.T) {
	c := testClient()

	msg := &telego.Message{
		MessageID: 2,
		From:      &telego.User{ID: 7, FirstName: "Alice", Username: "alice"},
		Chat:      telego.Chat{ID: -100, Type: telego.ChatTypeGroup},
		Text:      "tell me more",
		ReplyToMessage: &telego.Message{
			MessageID: 1,
			From:      &telego.User{ID: 500, IsBot: true, FirstName: "Selene", Username: "selene_bot"},
			Chat:      telego.Chat{ID: -100, Type: telego.ChatTypeGroup},
		},
	}

	ev, ok := c.eventFromMessage(2, msg)
	if !ok {
		t.Fatal("expected message to map")
	}
	if ev.ReplyTo == nil || ev.ReplyTo.ID != 500 {
		t.Fatalf("ReplyTo = %+v", ev.ReplyTo)
	}
	if !ev.ReplyToBot {
		t.Error("ReplyToBot = false, want true")
	}
}

func TestEventFromMessage_ReplyToOtherUser(t *testing.T) {
	c := testClient()

	msg := &telego.Message{
		MessageID: 3,
		From:      &telego.User{ID: 7, FirstName: "Alice"},
		Chat:      telego.Chat{ID: -100, Type: telego.ChatTypeGroup},
		Text:      "agreed",
		ReplyToMessage: &telego.Message{
			MessageID: 2,
			From:      &telego.User{ID: 8, FirstName: "Bob", Username: "bob"},
		},
	}

	ev, ok := c.eventFromMessage(3, msg)
	if !ok {
		t.Fatal("expected message to map")
	}
	if ev.ReplyTo == nil || ev.ReplyTo.Handle != "bob" {
		t.Errorf("ReplyTo = %+v", ev.ReplyTo)
	}
	if ev.ReplyToBot {
		t.Error("ReplyToBot = true for a reply to another user")
	}
}

func TestEventFromMessage_SkipsChannelsAndSenderless(t *testing.T) {
	c := testClient()

	channel := &telego.Message{
		MessageID: 4,
		From:      &telego.User{ID: 7},
		Chat:      telego.Chat{ID: -200, Type: telego.ChatTypeChannel},
		Text:      "broadcast",
	}
	if _, ok := c.eventFromMessage(4, channel); ok {
		t.Error("channel message mapped, want skip")
	}

	senderless := &telego.Message{
		MessageID: 5,
		Chat:      telego.Chat{ID: 7, Type: telego.ChatTypePrivate},
		Text:      "hi",
	}
	if _, ok := c.eventFromMessage(5, senderless); ok {
		t.Error("senderless message mapped, want skip")
	}
}

func TestCommandName(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"/start", "/start"},
		{"/start extra args", "/start"},
		{"/help@selene_bot", "/help"},
		{"/help@selene_bot please", "/help"},
	}
	for _, tt := range tests {
		if got := commandName(tt.text); got != tt.want {
			t.Errorf("commandName(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}
