package combinedkey

import "fmt"

// CombinedKey is a decoded (foreign key, primary key) pair.
type CombinedKey[F, P any] struct {
	foreignKey F
	primaryKey P
}

func NewCombinedKey[F, P any](foreignKey F, primaryKey P) CombinedKey[F, P] {
	return CombinedKey[F, P]{foreignKey: foreignKey, primaryKey: primaryKey}
}

func (k CombinedKey[F, P]) ForeignKey() F { return k.foreignKey }

func (k CombinedKey[F, P]) PrimaryKey() P { return k.primaryKey }

func (k CombinedKey[F, P]) String() string {
	return fmt.Sprintf("CombinedKey{foreignKey=%v, primaryKey=%v}", k.foreignKey, k.primaryKey)
}
