package mongodb

import (
	// Go Internal Packages
	"context"
	"time"

	// Local Packages
	models "bankfeed/models"

	// External Packages
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoTransaction is the archived form of a pushed transaction.
type MongoTransaction struct {
	ID                   string               `bson:"_id"`
	PaymentReferenceID   string               `bson:"payment_id,omitempty"`
	FromAccount          string               `bson:"from_account,omitempty"`
	ToAccount            string               `bson:"to_account,omitempty"`
	Amount               primitive.Decimal128 `bson:"amount"`
	Currency             string               `bson:"currency"`
	Direction            string               `bson:"direction"`
	Status               string               `bson:"status"`
	PaymentMethod        string               `bson:"payment_method,omitempty"`
	TransactionReference string               `bson:"transaction_reference,omitempty"`
	Description          string               `bson:"description,omitempty"`
	CreatedBy            string               `bson:"created_by,omitempty"`
	UpdatedAt            time.Time            `bson:"updated_at"`
	ArchivedAt           time.Time            `bson:"archived_at"`
}

// Transform converts a transaction into its archived form.
func Transform(tx models.Transaction, archivedAt time.Time) (MongoTransaction, error) {
	amount, err := primitive.ParseDecimal128(tx.Amount.String())
	if err != nil {
		return MongoTransaction{}, err
	}
	return MongoTransaction{
		ID:                   tx.ID,
		PaymentReferenceID:   tx.PaymentReferenceID,
		FromAccount:          tx.FromAccount,
		ToAccount:            tx.ToAccount,
		Amount:               amount,
		Currency:             tx.Currency,
		Direction:            tx.Direction,
		Status:               tx.Status,
		PaymentMethod:        tx.PaymentMethod,
		TransactionReference: tx.TransactionReference,
		Description:          tx.Description,
		CreatedBy:            tx.CreatedBy,
		UpdatedAt:            tx.UpdatedAt.Time,
		ArchivedAt:           archivedAt.UTC(),
	}, nil
}

// Transaction converts an archived document back into the domain record.
func (m MongoTransaction) Transaction() (models.Transaction, error) {
	amount, err := decimal.NewFromString(m.Amount.String())
	if err != nil {
		return models.Transaction{}, err
	}
	return models.Transaction{
		ID:                   m.ID,
		PaymentReferenceID:   m.PaymentReferenceID,
		FromAccount:          m.FromAccount,
		ToAccount:            m.ToAccount,
		Amount:               amount,
		Currency:             m.Currency,
		Direction:            m.Direction,
		Status:               m.Status,
		PaymentMethod:        m.PaymentMethod,
		TransactionReference: m.TransactionReference,
		Description:          m.Description,
		CreatedBy:            m.CreatedBy,
		UpdatedAt:            models.NewInstant(m.UpdatedAt),
	}, nil
}

type TxRepository struct {
	client     *mongo.Client
	database   string
	collection string
}

func NewTxRepository(client *mongo.Client, database string) *TxRepository {
	return &TxRepository{client: client, database: database, collection: "transactions"}
}

func (r *TxRepository) coll() *mongo.Collection {
	return r.client.Database(r.database).Collection(r.collection)
}

// UpsertTransaction archives a transaction, replacing any earlier version with the same id.
func (r *TxRepository) UpsertTransaction(ctx context.Context, tx models.Transaction) error {
	doc, err := Transform(tx, time.Now())
	if err != nil {
		return err
	}
	_, err = r.coll().ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	return err
}

// RecentTransactions returns up to limit archived transactions, newest first.
func (r *TxRepository) RecentTransactions(ctx context.Context, limit int64) ([]models.Transaction, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}}).SetLimit(limit)
	cursor, err := r.coll().Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []MongoTransaction
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	txs := make([]models.Transaction, 0, len(docs))
	for _, doc := range docs {
		tx, err := doc.Transaction()
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, nil
}
