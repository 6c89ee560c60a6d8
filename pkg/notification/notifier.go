package notification

// NotificationSystem represents a delivery channel (e.g. email).
type NotificationSystem string

// NotificationType represents a kind of notification.
type NotificationType string

const (
	EmailSystem NotificationSystem = "email"

	EmailVerifyNotice   NotificationType = "email_verify_otp"
	EmailChangeNotice   NotificationType = "email_change_otp"
	PasswordResetNotice NotificationType = "password_reset"
)

// NotificationData carries the recipient and template data for one send.
type NotificationData struct {
	To     string
	Locale string
	Data   map[string]string
}

// Notifier sends a rendered notification over one system.
type Notifier interface {
	Send(subject, body string, data NotificationData) error
}
