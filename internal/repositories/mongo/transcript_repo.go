package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/callsight/callsight/internal/models"
	"github.com/callsight/callsight/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type TranscriptRepository interface {
	Upsert(ctx context.Context, doc *models.TranscriptDoc) error
	GetByCallID(ctx context.Context, callID string) (*models.TranscriptDoc, error)
	DeleteByCallIDs(ctx context.Context, callIDs []string) (int64, error)
}

type transcriptRepo struct {
	col *mongo.Collection
}

func NewTranscriptRepo(db *mongo.Database) TranscriptRepository {
	return &transcriptRepo{col: db.Collection("transcripts")}
}

func (r *transcriptRepo) Upsert(ctx context.Context, doc *models.TranscriptDoc) error {
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	_, err := r.col.UpdateOne(ctx,
		bson.M{"call_id": doc.CallID},
		bson.M{"$set": bson.M{
			"company_id": doc.CompanyID,
			"provider":   doc.Provider,
			"text":       doc.Text,
			"segments":   doc.Segments,
			"raw":        doc.Raw,
			"created_at": doc.CreatedAt,
		}},
		options.Update().SetUpsert(true),
	)
	return err
}

func (r *transcriptRepo) GetByCallID(ctx context.Context, callID string) (*models.TranscriptDoc, error) {
	var doc models.TranscriptDoc
	err := r.col.FindOne(ctx, bson.M{"call_id": callID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	return &doc, err
}

func (r *transcriptRepo) DeleteByCallIDs(ctx context.Context, callIDs []string) (int64, error) {
	if len(callIDs) == 0 {
		return 0, nil
	}
	res, err := r.col.DeleteMany(ctx, bson.M{"call_id": bson.M{"$in": callIDs}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
