package email

import "fmt"

// PaymentFailedEmail builds the notification sent when a renewal charge
// fails. The member keeps access until the period ends, so the copy nudges
// toward updating the payment method rather than announcing a loss.
func PaymentFailedEmail(recipient, tierName string) SendEmailParams {
	return SendEmailParams{
		SendTo:  recipient,
		Subject: "Your membership payment failed",
		BodyHTML: fmt.Sprintf(
			`<p>We couldn't process the renewal payment for your <strong>%s</strong> membership.</p>`+
				`<p>Your access is unchanged for now. Please update your payment method to keep it that way; `+
				`the payment provider will retry automatically over the next few days.</p>`,
			tierName),
		Tag: "payment-failed",
	}
}
