package public

import (
	"math/big"

	"github.com/powchain/powchain/business/sys/validate"
	"github.com/powchain/powchain/foundation/blockchain/database"
)

// tx represents the view of an uncommitted transaction returned to clients.
type tx struct {
	FromAccount database.AccountID `json:"from"`
	To          database.AccountID `json:"to"`
	Nonce       uint               `json:"nonce"`
	Value       uint               `json:"value"`
	Tip         uint               `json:"tip"`
	Data        []byte             `json:"data"`
	TimeStamp   uint64             `json:"timestamp"`
	Sig         string             `json:"sig"`
}

// submitTx is the model a wallet posts to submit a signed transaction.
type submitTx struct {
	Nonce uint     `json:"nonce"`
	To    string   `json:"to" validate:"required"`
	Value uint     `json:"value"`
	Tip   uint     `json:"tip"`
	Data  []byte   `json:"data"`
	V     *big.Int `json:"v" validate:"required"`
	R     *big.Int `json:"r" validate:"required"`
	S     *big.Int `json:"s" validate:"required"`
}

// Validate checks the data in the model is considered clean.
func (app submitTx) Validate() error {
	return validate.Check(app)
}

// toSignedTx converts the app layer model into a database signed
// transaction.
func toSignedTx(app submitTx) (database.SignedTx, error) {
	toID, err := database.ToAccountID(app.To)
	if err != nil {
		return database.SignedTx{}, err
	}

	signedTx := database.SignedTx{
		Tx: database.Tx{
			Nonce: app.Nonce,
			ToID:  toID,
			Value: app.Value,
			Tip:   app.Tip,
			Data:  app.Data,
		},
		V: app.V,
		R: app.R,
		S: app.S,
	}

	return signedTx, nil
}
