package github

import (
	"context"
	"errors"
	"fmt"
	"strconv"
)

// ErrNoSender is returned by User when neither the
// event sender nor the actor is known.
var ErrNoSender = errors.New("no sender login")

// User identifies the account a commit is attributed
// to.
type User struct {
	Login string
	Name  string
	Email string
	ID    int64
}

// DefaultBranch returns the default branch of the
// repository.
func (h *Helper) DefaultBranch(ctx context.Context) (string, error) {
	const errCtx = "getting default branch"

	owner, repo := h.repo()

	r, _, err := h.client.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	return r.GetDefaultBranch(), nil
}

// Sender returns the login User looks up.
func (h *Helper) Sender() string {
	switch {
	case h.sender != "":
		return h.sender
	case h.wc.SenderLogin() != "":
		return h.wc.SenderLogin()
	}

	return h.wc.Actor
}

// User returns the sender account. Missing name and
// email fall back to the login and the noreply address.
func (h *Helper) User(ctx context.Context) (User, error) {
	const errCtx = "getting user"

	login := h.Sender()
	if login == "" {
		return User{}, fmt.Errorf("%s: %w", errCtx, ErrNoSender)
	}

	u, _, err := h.client.Users.Get(ctx, login)
	if err != nil {
		return User{}, fmt.Errorf("%s: %s: %w", errCtx, login, err)
	}

	user := User{
		Login: u.GetLogin(),
		Name:  u.GetName(),
		Email: u.GetEmail(),
		ID:    u.GetID(),
	}

	if user.Name == "" {
		user.Name = user.Login
	}

	if user.Email == "" {
		user.Email = strconv.FormatInt(user.ID, 10) + "+" +
			user.Login + "@users.noreply.github.com"
	}

	return user, nil
}
