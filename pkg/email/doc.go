// Package email sends transactional mail for the email notification channel.
//
// EmailSender is the provider-agnostic interface. PostmarkClient delivers
// through Postmark; LogSender only logs and is used when no Postmark token is
// configured.
//
//	client, err := email.NewPostmarkClient(cfg)
//	if err != nil {
//	    return err
//	}
//
//	err = client.SendEmail(ctx, email.SendEmailParams{
//	    SendTo:   "user@example.com",
//	    Subject:  "New application for Go Engineer",
//	    BodyHTML: "<p>Jane applied.</p>",
//	    Tag:      "application_received",
//	    Metadata: map[string]string{"notification_id": id},
//	})
//
// Parameters are validated before sending; failures wrap ErrInvalidParams.
// Mail goes out on POSTMARK_MESSAGE_STREAM and provider rejections wrap
// ErrFailedToSendEmail with the Postmark error code.
package email
