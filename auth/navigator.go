package auth

// Navigator is told when the session is gone and the user has to log in again.
type Navigator interface {
	RedirectToLogin(reason string)
}

// NavigatorFunc adapts a plain function to Navigator.
type NavigatorFunc func(reason string)

func (f NavigatorFunc) RedirectToLogin(reason string) {
	f(reason)
}

type noopNavigator struct{}

func (noopNavigator) RedirectToLogin(string) {}
