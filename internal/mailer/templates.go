package mailer

import "fmt"

// VerificationMessage builds the email-confirmation message for a new account
func VerificationMessage(to, username, baseURL, token, supportEmail string) *Message {
	body := fmt.Sprintf(
		"Hello %s,\n\n"+
			"Please confirm your email address by opening the link below:\n\n"+
			"%s/api/v1/auth/verify-email?token=%s\n\n"+
			"If you did not create this account, you can ignore this message.\n",
		username, baseURL, token,
	)
	if supportEmail != "" {
		body += fmt.Sprintf("\nQuestions? Contact us at %s.\n", supportEmail)
	}
	return &Message{
		To:      to,
		Subject: "Confirm your email address",
		Body:    body,
	}
}

// PasswordResetMessage builds the password-reset message
func PasswordResetMessage(to, username, baseURL, token, supportEmail string) *Message {
	body := fmt.Sprintf(
		"Hello %s,\n\n"+
			"Someone requested a password reset for your account. Open the link\n"+
			"below to choose a new password:\n\n"+
			"%s/api/v1/auth/password/reset/confirm?token=%s\n\n"+
			"If this wasn't you, your password is unchanged and you can ignore\n"+
			"this message.\n",
		username, baseURL, token,
	)
	if supportEmail != "" {
		body += fmt.Sprintf("\nQuestions? Contact us at %s.\n", supportEmail)
	}
	return &Message{
		To:      to,
		Subject: "Reset your password",
		Body:    body,
	}
}
