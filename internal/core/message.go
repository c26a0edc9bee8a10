package core

import "strings"

const subjectPrefix = "Contact form: "

// ComposeMessage lays out a submission as a plaintext email to the fixed recipient.
// Replies go back to the submitter.
func ComposeMessage(sub *Submission, identity MailIdentity) *Message {
	body := strings.Join([]string{
		"Name:    " + sub.Name,
		"Email:   " + sub.Email,
		"",
		"Message:",
		sub.Message,
	}, "\n")

	return &Message{
		FromAddress:    identity.FromAddress,
		FromName:       identity.FromName,
		To:             identity.To,
		ReplyToAddress: sub.Email,
		ReplyToName:    sub.Name,
		Subject:        subjectPrefix + sub.Name,
		Body:           body,
	}
}
