package documents

import (
	"context"
	"database/sql"
	"errors"
)

type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Insert(ctx context.Context, doc Document) error {
	const query = `
INSERT INTO documents (id, user_id, file_name, ticker, storage_key, num_chunks, num_pages, analysis_status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())`
	_, err := r.DB.ExecContext(ctx, query,
		doc.ID,
		doc.UserID,
		doc.FileName,
		doc.Ticker,
		doc.StorageKey,
		doc.NumChunks,
		doc.NumPages,
		StatusPending,
	)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, userID, documentID string) (Document, error) {
	const query = `
SELECT id, user_id, file_name, ticker, storage_key, num_chunks, num_pages,
       analysis_status, sentiment_score, sentiment_label, risk_level, summary, created_at
FROM documents
WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL
LIMIT 1`
	var doc Document
	err := r.DB.QueryRowContext(ctx, query, documentID, userID).Scan(
		&doc.ID,
		&doc.UserID,
		&doc.FileName,
		&doc.Ticker,
		&doc.StorageKey,
		&doc.NumChunks,
		&doc.NumPages,
		&doc.AnalysisStatus,
		&doc.SentimentScore,
		&doc.SentimentLabel,
		&doc.RiskLevel,
		&doc.Summary,
		&doc.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

func (r *PGRepo) ListByUser(ctx context.Context, userID string) ([]Document, error) {
	const query = `
SELECT id, user_id, file_name, ticker, storage_key, num_chunks, num_pages,
       analysis_status, sentiment_score, sentiment_label, risk_level, summary, created_at
FROM documents
WHERE user_id = $1 AND deleted_at IS NULL
ORDER BY created_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var doc Document
		if err := rows.Scan(
			&doc.ID,
			&doc.UserID,
			&doc.FileName,
			&doc.Ticker,
			&doc.StorageKey,
			&doc.NumChunks,
			&doc.NumPages,
			&doc.AnalysisStatus,
			&doc.SentimentScore,
			&doc.SentimentLabel,
			&doc.RiskLevel,
			&doc.Summary,
			&doc.CreatedAt,
		); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (r *PGRepo) UpdateAnalysis(ctx context.Context, userID, documentID string, status string, sentimentScore float64, sentimentLabel, riskLevel, summary string) error {
	const query = `
UPDATE documents
SET analysis_status = $3, sentiment_score = $4, sentiment_label = $5, risk_level = $6, summary = $7
WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`
	res, err := r.DB.ExecContext(ctx, query, documentID, userID, status, sentimentScore, sentimentLabel, riskLevel, summary)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) SoftDelete(ctx context.Context, userID, documentID string) error {
	const query = `
UPDATE documents SET deleted_at = now()
WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`
	res, err := r.DB.ExecContext(ctx, query, documentID, userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) Stats(ctx context.Context, userID string) (DashboardStats, error) {
	const query = `
SELECT count(*),
       count(*) FILTER (WHERE analysis_status = 'analyzed'),
       coalesce(avg(sentiment_score) FILTER (WHERE analysis_status = 'analyzed'), 0),
       count(*) FILTER (WHERE risk_level = 'High')
FROM documents
WHERE user_id = $1 AND deleted_at IS NULL`
	var stats DashboardStats
	err := r.DB.QueryRowContext(ctx, query, userID).Scan(
		&stats.TotalDocuments,
		&stats.AnalyzedCount,
		&stats.AvgSentiment,
		&stats.HighRiskCount,
	)
	if err != nil {
		return DashboardStats{}, err
	}
	return stats, nil
}
