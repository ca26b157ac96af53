package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message"
)

var emailCheckMutex sync.Mutex

var subjectTelegramIDRe = regexp.MustCompile(`\b([0-9]{5,19})\b`)

func (a *App) setupEmailConn() (*client.Client, error) {
	conn, err := client.DialTLS(a.cfg.ImapAddress, nil)
	if err != nil {
		return nil, err
	}
	if err := conn.Login(a.cfg.ImapUsername, a.cfg.ImapPassword); err != nil {
		conn.Logout()
		return nil, err
	}
	return conn, nil
}

type AttachmentToHandle struct {
	SenderEmail string
	Subject     string
	FileName    string
	MimeType    string
	Content     []byte
}

// telegramIDFromSubject finds the sender's Telegram id in a mail subject.
func telegramIDFromSubject(subject string) (int64, bool) {
	m := subjectTelegramIDRe.FindStringSubmatch(subject)
	if m == nil {
		return 0, false
	}
	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// handleEmailAttachment runs an e-mailed archive through the same intake as
// chat uploads. Rejected attachments are reported to the administrators.
func (a *App) handleEmailAttachment(ctx context.Context, attachment AttachmentToHandle) error {
	log.Printf("Handling email attachment: %v, %v", attachment.MimeType, attachment.FileName)
	if !isAllowedArchive(attachment.FileName) {
		return nil
	}
	reject := func(reason string) error {
		a.notifyAdmins(fmt.Sprintf(
			"📨 E-mail archive rejected\n\n📄 File: %v\n📝 Subject: %v\n✉️ Sender: %v\n❌ %v",
			attachment.FileName, attachment.Subject, attachment.SenderEmail, reason,
		), nil)
		return nil
	}

	telegramID, ok := telegramIDFromSubject(attachment.Subject)
	if !ok {
		return reject("No Telegram user ID in the subject")
	}
	store := a.store.WithContext(ctx)
	user, err := store.UserByTelegramID(telegramID)
	if errors.Is(err, errUserNotFound) {
		return reject(fmt.Sprintf("Unknown user %d", telegramID))
	} else if err != nil {
		return err
	}
	if !a.gate.HasAccess(user) {
		return reject(fmt.Sprintf("User %d has no access", telegramID))
	}
	account, err := a.acceptArchive(ctx, store, user, attachment.FileName, attachment.Content, "email")
	if err != nil {
		return reject(err.Error())
	}
	if err := a.send(user.TelegramID, fmt.Sprintf("✅ Archive %s received by e-mail.\n🆔 Archive ID: %d",
		account.FileName, account.ID), nil); err != nil {
		log.Printf("error notifying user %v about e-mail archive: %v", user.TelegramID, err)
	}
	return nil
}

// readAttachments returns the named parts of a raw RFC 822 message.
func readAttachments(r io.Reader) ([]AttachmentToHandle, error) {
	entity, err := message.Read(r)
	if err != nil && !message.IsUnknownCharset(err) {
		return nil, err
	}
	multiPartReader := entity.MultipartReader()
	if multiPartReader == nil {
		return nil, nil
	}
	var attachments []AttachmentToHandle
	for {
		e, err := multiPartReader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		kind, params, cErr := e.Header.ContentType()
		if cErr != nil {
			return nil, cErr
		}
		log.Printf("Part: %v, %v", kind, params)
		if kind == "multipart/alternative" {
			continue
		}
		fileName := params["name"]
		if _, dParams, dErr := e.Header.ContentDisposition(); dErr == nil && dParams["filename"] != "" {
			fileName = dParams["filename"]
		}
		if fileName == "" {
			continue
		}
		content, err := io.ReadAll(e.Body)
		if err != nil {
			return nil, err
		}
		attachments = append(attachments, AttachmentToHandle{
			FileName: fileName,
			MimeType: kind,
			Content:  content,
		})
	}
	return attachments, nil
}

// emailMessage is a fetched message reduced to what the intake needs.
type emailMessage struct {
	SeqNum  uint32
	Sender  string
	Subject string
	Body    io.Reader
}

// ingestEmailMessages passes the attachments of every message to handle and
// returns the messages that were handled completely. A failing message is
// logged and left out, so it stays in the mailbox for the next run.
func ingestEmailMessages(ctx context.Context, messages []emailMessage, handle func(context.Context, AttachmentToHandle) error) *imap.SeqSet {
	processed := new(imap.SeqSet)
	for _, msg := range messages {
		if ctx.Err() != nil {
			break
		}
		attachments, err := readAttachments(msg.Body)
		if err != nil {
			log.Printf("error reading message %v: %v", msg.SeqNum, err)
			continue
		}
		failed := false
		for _, attachment := range attachments {
			attachment.SenderEmail = msg.Sender
			attachment.Subject = msg.Subject
			if err := handle(ctx, attachment); err != nil {
				log.Printf("error handling %v from message %v: %v", attachment.FileName, msg.SeqNum, err)
				failed = true
				break
			}
		}
		if !failed {
			processed.AddNum(msg.SeqNum)
		}
	}
	return processed
}

func (a *App) doCheckEmail(ctx context.Context) error {
	emailCheckMutex.Lock()
	defer emailCheckMutex.Unlock()
	log.Printf("Checking email...")
	conn, err := a.setupEmailConn()
	if err != nil {
		return err
	}
	defer conn.Logout()
	log.Printf("Connected to email server")

	mbox, err := conn.Select("INBOX", false)
	if err != nil {
		return err
	}
	log.Printf("Found %d messages", mbox.Messages)
	if mbox.Messages == 0 {
		return nil
	}
	// only the newest messages, older ones are picked up on the next runs
	seqset := new(imap.SeqSet)
	from := uint32(1)
	if mbox.Messages > 10 {
		from = mbox.Messages - 10
	}
	seqset.AddRange(from, mbox.Messages)

	section := &imap.BodySectionName{}
	messages := make(chan *imap.Message, 11)
	done := make(chan error, 1)
	go func() {
		done <- conn.Fetch(seqset, []imap.FetchItem{section.FetchItem(), imap.FetchEnvelope}, messages)
	}()
	select {
	case err := <-done:
		if err != nil {
			return err
		}
	case <-time.After(30 * time.Second):
		return errors.New("timeout fetching messages")
	case <-ctx.Done():
		return ctx.Err()
	}

	var fetched []emailMessage
	for msg := range messages {
		if msg.Envelope == nil {
			continue
		}
		log.Printf("Message: %v", msg.Envelope.Subject)
		body := msg.GetBody(section)
		if body == nil {
			continue
		}
		sender := ""
		if len(msg.Envelope.From) > 0 {
			sender = msg.Envelope.From[0].MailboxName + "@" + msg.Envelope.From[0].HostName
		}
		fetched = append(fetched, emailMessage{
			SeqNum:  msg.SeqNum,
			Sender:  sender,
			Subject: msg.Envelope.Subject,
			Body:    body,
		})
	}
	processed := ingestEmailMessages(ctx, fetched, a.handleEmailAttachment)
	if processed.Empty() {
		return nil
	}

	flags := []any{imap.DeletedFlag}
	if err := conn.Store(processed, imap.FormatFlagsOp(imap.AddFlags, true), flags, nil); err != nil {
		return fmt.Errorf("error deleting messages: %v", err)
	}
	if err := conn.Expunge(nil); err != nil {
		return fmt.Errorf("error expunging mailbox: %v", err)
	}
	log.Printf("Done checking email")
	return nil
}

func (a *App) runEmailCheckerLoop(ctx context.Context) error {
	func() {
		emailCheckMutex.Lock()
		defer emailCheckMutex.Unlock()
		log.Printf("Checking email configuration & listing mailboxes...")
		conn, err := a.setupEmailConn()
		if err != nil {
			log.Printf("Error setting up first email connection: %v", err)
			return
		}
		defer conn.Logout()
		mailboxes := make(chan *imap.MailboxInfo, 10)
		done := make(chan error, 1)
		go func() {
			done <- conn.List("", "*", mailboxes)
		}()
		log.Println("Mailboxes:")
		for m := range mailboxes {
			log.Println("* " + m.Name)
		}
		if err := <-done; err != nil {
			log.Printf("Error listing mailboxes: %v", err)
		}
	}()
	sleepDuration := duration(a.cfg.EmailCheckInterval, 10*time.Minute)
	for {
		if err := a.doCheckEmail(ctx); err != nil {
			log.Printf("Error checking email: %v", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(sleepDuration):
		}
	}
}

func (a *App) handleCheckEmail(t *turn) error {
	if !a.requireAdmin(t) {
		return nil
	}
	if a.cfg.ImapAddress == "" {
		a.reply(t.ev.ChatID, "📭 E-mail intake is not configured.", nil)
		return nil
	}
	a.reply(t.ev.ChatID, "Checking email...", nil)
	if err := a.doCheckEmail(t.ctx); err != nil {
		return err
	}
	a.reply(t.ev.ChatID, "Email checked.", nil)
	return nil
}
