package repo

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"

	domain "github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/internal/entity"
	"github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/internal/usecase"
)

// MySQLWholesaleRepo checks access codes against wholesale_accounts. Codes are
// stored as hex SHA-256.
type MySQLWholesaleRepo struct{ db *sql.DB }

func NewMySQLWholesaleRepo(db *sql.DB) *MySQLWholesaleRepo { return &MySQLWholesaleRepo{db: db} }

func (r *MySQLWholesaleRepo) Authenticate(ctx context.Context, code, email string) (domain.User, error) {
	sum := sha256.Sum256([]byte(code))
	row := r.db.QueryRowContext(ctx, `
SELECT id,email,name FROM wholesale_accounts
WHERE email = ? AND code_sha256 = ? AND active = 1`, email, hex.EncodeToString(sum[:]))
	var u domain.User
	err := row.Scan(&u.ID, &u.Email, &u.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, usecase.ErrInvalidWholesaleCredentials
	}
	if err != nil {
		return domain.User{}, err
	}
	u.Wholesale = true
	return u, nil
}

var _ usecase.WholesaleAuthenticator = (*MySQLWholesaleRepo)(nil)
