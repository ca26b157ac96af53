package main

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestTelegramIDFromSubject(t *testing.T) {
	tests := []struct {
		subject string
		id      int64
		ok      bool
	}{
		{"Archive 123456789", 123456789, true},
		{"ID:987654321 march", 987654321, true},
		{"Re: Fwd: 55555", 55555, true},
		{"archive for march", 0, false},
		{"code 1234", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		id, ok := telegramIDFromSubject(tt.subject)
		if id != tt.id || ok != tt.ok {
			t.Fatalf("telegramIDFromSubject(%q) = %d, %v", tt.subject, id, ok)
		}
	}
}

const rawMessage = "From: Worker <worker@example.com>\r\n" +
	"To: archives@example.com\r\n" +
	"Subject: 2000\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: multipart/mixed; boundary=\"BOUNDARY\"\r\n" +
	"\r\n" +
	"--BOUNDARY\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"See the attachment.\r\n" +
	"--BOUNDARY\r\n" +
	"Content-Type: application/zip; name=\"march.zip\"\r\n" +
	"Content-Disposition: attachment; filename=\"march.zip\"\r\n" +
	"Content-Transfer-Encoding: base64\r\n" +
	"\r\n" +
	"UEsDBA==\r\n" +
	"--BOUNDARY\r\n" +
	"Content-Type: application/octet-stream; name=\"notes.bin\"\r\n" +
	"\r\n" +
	"raw\r\n" +
	"--BOUNDARY--\r\n"

func TestReadAttachments(t *testing.T) {
	attachments, err := readAttachments(strings.NewReader(rawMessage))
	if err != nil {
		t.Fatalf("readAttachments: %v", err)
	}
	if len(attachments) != 2 {
		t.Fatalf("expected 2 attachments, got %d", len(attachments))
	}
	zip := attachments[0]
	if zip.FileName != "march.zip" || zip.MimeType != "application/zip" {
		t.Fatalf("unexpected attachment %+v", zip)
	}
	if string(zip.Content) != "PK\x03\x04" {
		t.Fatalf("content not decoded: %q", zip.Content)
	}
	if attachments[1].FileName != "notes.bin" {
		t.Fatalf("name from content type not used: %+v", attachments[1])
	}
}

func TestReadAttachmentsSinglePart(t *testing.T) {
	msg := "Subject: hi\r\nContent-Type: text/plain\r\n\r\nhello\r\n"
	attachments, err := readAttachments(strings.NewReader(msg))
	if err != nil || len(attachments) != 0 {
		t.Fatalf("expected no attachments, got %v, %v", attachments, err)
	}
}

func TestHandleEmailAttachment(t *testing.T) {
	app, bot := newTestApp(t)
	addUser(t, app, testWorkerID, "worker", true)
	addUser(t, app, 30000, "blocked", false)

	err := app.handleEmailAttachment(t.Context(), AttachmentToHandle{
		SenderEmail: "worker@example.com",
		Subject:     "archive 2000",
		FileName:    "march.zip",
		Content:     []byte("PK\x03\x04"),
	})
	if err != nil {
		t.Fatalf("handleEmailAttachment: %v", err)
	}
	accounts, _ := app.store.AllAccounts()
	if len(accounts) != 1 || accounts[0].User.TelegramID != testWorkerID {
		t.Fatalf("expected one archive of the worker, got %+v", accounts)
	}
	mustContain(t, bot.last(t, testWorkerID).Text, "received by e-mail")
	logs, _ := app.store.Logs(1)
	mustContain(t, *logs[0].Description, "source: email")

	rejected := []struct {
		subject string
		reason  string
	}{
		{"march archive", "No Telegram user ID"},
		{"archive 99999", "Unknown user 99999"},
		{"archive 30000", "has no access"},
	}
	for _, tt := range rejected {
		if err := app.handleEmailAttachment(t.Context(), AttachmentToHandle{
			Subject:  tt.subject,
			FileName: "april.zip",
			Content:  []byte("x"),
		}); err != nil {
			t.Fatalf("%v: %v", tt.subject, err)
		}
		notice := bot.last(t, testAdminID).Text
		mustContain(t, notice, "E-mail archive rejected")
		mustContain(t, notice, tt.reason)
	}
	if accounts, _ := app.store.AllAccounts(); len(accounts) != 1 {
		t.Fatalf("rejected attachments were stored")
	}

	// non-archive parts are ignored silently
	bot.reset()
	if err := app.handleEmailAttachment(t.Context(), AttachmentToHandle{Subject: "2000", FileName: "logo.png"}); err != nil {
		t.Fatal(err)
	}
	if len(bot.to(testAdminID)) != 0 {
		t.Fatalf("image attachment reported")
	}
}

func TestIngestEmailMessagesSkipsOnlyFailedMessages(t *testing.T) {
	app, _ := newTestApp(t)
	addUser(t, app, testWorkerID, "worker", true)

	withSubject := func(subject string) *strings.Reader {
		return strings.NewReader(strings.Replace(rawMessage, "Subject: 2000", "Subject: "+subject, 1))
	}
	messages := []emailMessage{
		{SeqNum: 1, Subject: "archive 2000", Body: withSubject("archive 2000")},
		{SeqNum: 2, Subject: "archive 2000 retry", Body: withSubject("archive 2000 retry")},
		{SeqNum: 3, Subject: "archive 2000", Body: withSubject("archive 2000")},
	}
	handle := func(ctx context.Context, attachment AttachmentToHandle) error {
		if strings.HasSuffix(attachment.Subject, "retry") {
			return errors.New("database is locked")
		}
		return app.handleEmailAttachment(ctx, attachment)
	}

	processed := ingestEmailMessages(t.Context(), messages, handle)
	if !processed.Contains(1) || !processed.Contains(3) {
		t.Fatalf("handled messages not marked for deletion: %v", processed)
	}
	if processed.Contains(2) {
		t.Fatalf("failed message marked for deletion")
	}
	// two messages with one zip each, the bin part is skipped
	if n := countLogs(t, app, "account_uploaded"); n != 2 {
		t.Fatalf("expected 2 uploads, got %d", n)
	}
}
