// Package commands contains CLI command implementations for the application.
package commands

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/golang-migrate/migrate/v4"
	"github.com/google/uuid"
	"golang.org/x/term"

	cryptoDomain "github.com/allisson/otpvault/internal/crypto/domain"
	cryptoService "github.com/allisson/otpvault/internal/crypto/service"
	keystoreDomain "github.com/allisson/otpvault/internal/keystore/domain"
	slotDomain "github.com/allisson/otpvault/internal/slot/domain"
	slotUseCase "github.com/allisson/otpvault/internal/slot/usecase"
	vaultDomain "github.com/allisson/otpvault/internal/vault/domain"
)

// VaultSession is the part of the vault session the commands drive.
type VaultSession interface {
	Create(ctx context.Context, password []byte) error
	Unlock(ctx context.Context, credential slotUseCase.Credential) error
	Lock()
	Vault() (*vaultDomain.Vault, error)
	Slots(ctx context.Context) (*slotDomain.SlotList, error)
	AddPasswordSlot(ctx context.Context, password []byte) (*slotDomain.Slot, error)
	AddBiometricSlot(ctx context.Context, authenticator keystoreDomain.Authenticator) (*slotDomain.Slot, error)
	AddRawSlot(ctx context.Context, rawKey []byte) (*slotDomain.Slot, error)
	RemoveSlot(ctx context.Context, id uuid.UUID) error
	ChangePassword(ctx context.Context, password []byte) error
}

// IOTuple holds reader and writer for commands, allowing for testing.
type IOTuple struct {
	Reader io.Reader
	Writer io.Writer

	lines *bufio.Reader
}

// DefaultIO returns an IOTuple with os.Stdin and os.Stdout.
func DefaultIO() IOTuple {
	return IOTuple{
		Reader: os.Stdin,
		Writer: os.Stdout,
	}
}

// readLine reads one line from the tuple's reader, without the line terminator.
// The buffered reader is kept so consecutive prompts share it.
func (t *IOTuple) readLine() (string, error) {
	if t.lines == nil {
		t.lines = bufio.NewReader(t.Reader)
	}
	line, err := t.lines.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// readSecret prompts for a secret. On a terminal the input is not echoed;
// otherwise one line is read from the tuple's reader.
func readSecret(t *IOTuple, prompt string) ([]byte, error) {
	_, _ = fmt.Fprint(t.Writer, prompt)

	if f, ok := t.Reader.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		_, _ = fmt.Fprintln(t.Writer)
		if err != nil {
			return nil, fmt.Errorf("failed to read password: %w", err)
		}
		return secret, nil
	}

	line, err := t.readLine()
	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	return []byte(line), nil
}

// readPassword prompts for a password and returns its UTF-8 encoding as fed to
// key derivation. Input that is not valid UTF-8 is rejected.
func readPassword(t *IOTuple, prompt string) ([]byte, error) {
	secret, err := readSecret(t, prompt)
	if err != nil {
		return nil, err
	}
	defer cryptoDomain.Zero(secret)

	if !utf8.Valid(secret) {
		return nil, errors.New("password is not valid UTF-8")
	}
	chars := cryptoService.PasswordChars(secret)
	defer cryptoService.WipeChars(chars)
	return cryptoService.PasswordBytes(chars), nil
}

// readNewPassword prompts for a new password twice and checks both match.
func readNewPassword(t *IOTuple) ([]byte, error) {
	password, err := readPassword(t, "New password: ")
	if err != nil {
		return nil, err
	}
	if len(password) == 0 {
		return nil, errors.New("password must not be empty")
	}

	confirm, err := readPassword(t, "Confirm password: ")
	if err != nil {
		cryptoDomain.Zero(password)
		return nil, err
	}
	defer cryptoDomain.Zero(confirm)

	if string(password) != string(confirm) {
		cryptoDomain.Zero(password)
		return nil, errors.New("passwords do not match")
	}
	return password, nil
}

// confirmAuthenticator gates key release behind an explicit "yes" on the prompt.
// Any other answer cancels the authentication.
func confirmAuthenticator(t *IOTuple) keystoreDomain.Authenticator {
	return keystoreDomain.AuthenticatorFunc(func(ctx context.Context, alias string) error {
		if err := ctx.Err(); err != nil {
			return keystoreDomain.ErrAuthenticationCancelled
		}
		_, _ = fmt.Fprintf(t.Writer, "Release key %s? [yes/no]: ", alias)
		answer, err := t.readLine()
		if err != nil {
			return keystoreDomain.ErrAuthenticationCancelled
		}
		if !strings.EqualFold(strings.TrimSpace(answer), "yes") {
			return keystoreDomain.ErrAuthenticationCancelled
		}
		return nil
	})
}

// unlockSession unlocks the session with the credential selected by method.
func unlockSession(ctx context.Context, session VaultSession, t *IOTuple, method string) error {
	switch method {
	case "password":
		password, err := readPassword(t, "Password: ")
		if err != nil {
			return err
		}
		defer cryptoDomain.Zero(password)
		return session.Unlock(ctx, slotUseCase.PasswordCredential{Password: password})
	case "biometric":
		return session.Unlock(ctx, slotUseCase.BiometricCredential{Authenticator: confirmAuthenticator(t)})
	case "raw":
		hexKey, err := readSecret(t, "Raw key (hex): ")
		if err != nil {
			return err
		}
		defer cryptoDomain.Zero(hexKey)
		key, err := decodeHexKey(string(hexKey))
		if err != nil {
			return err
		}
		defer cryptoDomain.Zero(key)
		return session.Unlock(ctx, slotUseCase.RawCredential{Key: key})
	default:
		return fmt.Errorf("invalid unlock method: %s (valid options: password, biometric, raw)", method)
	}
}

// writeJSON writes v as indented JSON followed by a newline.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// validateFormat checks the output format flag.
func validateFormat(format string) error {
	if format != "text" && format != "json" {
		return fmt.Errorf("invalid format: %s (valid options: text, json)", format)
	}
	return nil
}

// closeMigrate closes the migration instance and logs any errors.
func closeMigrate(migrate *migrate.Migrate, logger *slog.Logger) {
	sourceError, databaseError := migrate.Close()
	if sourceError != nil || databaseError != nil {
		logger.Error(
			"failed to close the migrate",
			slog.Any("source_error", sourceError),
			slog.Any("database_error", databaseError),
		)
	}
}
