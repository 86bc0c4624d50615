// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/lexdraft/pkg/types"
)

// Sign records a signature on a document. A draft document moves to signed
// in the same transaction. Requests without an originating address get the
// configured default.
func (s *Store) Sign(ctx context.Context, req types.SignatureRequest) (*types.Signature, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("signature requires a signer name")
	}
	if strings.TrimSpace(req.SignatureData) == "" {
		return nil, fmt.Errorf("signature requires signature data")
	}

	sig := types.Signature{
		ID:            uuid.NewString(),
		DocumentID:    req.DocumentID,
		SignerID:      req.SignerID,
		Name:          req.Name,
		Email:         req.Email,
		Role:          req.Role,
		SignatureData: req.SignatureData,
		IPAddress:     req.IPAddress,
	}
	if sig.IPAddress == "" {
		sig.IPAddress = s.defaultIP
	}
	ts := s.now()
	sig.SignedAt, _ = time.Parse(timeLayout, ts)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var status string
	err = tx.QueryRowContext(ctx, `SELECT status FROM documents WHERE id = ?`, req.DocumentID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %s: %w", req.DocumentID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading document %s: %w", req.DocumentID, err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO signatures (id, document_id, signer_id, name, email, role, signature_data, ip_address, signed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sig.ID, sig.DocumentID, sig.SignerID, sig.Name, sig.Email, sig.Role,
		sig.SignatureData, sig.IPAddress, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting signature: %w", err)
	}

	if types.DocumentStatus(status) == types.StatusDraft {
		_, err = tx.ExecContext(ctx,
			`UPDATE documents SET status = ?, updated_at = ? WHERE id = ?`,
			string(types.StatusSigned), ts, req.DocumentID,
		)
		if err != nil {
			return nil, fmt.Errorf("marking document signed: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing signature: %w", err)
	}
	return &sig, nil
}

const signatureColumns = `id, document_id, signer_id, name, email, role, signature_data, ip_address, signed_at`

func scanSignature(row scanner) (*types.Signature, error) {
	var (
		sig                         types.Signature
		signerID, email, role, data sql.NullString
		ip                          sql.NullString
		signedAt                    string
	)
	if err := row.Scan(&sig.ID, &sig.DocumentID, &signerID, &sig.Name, &email, &role,
		&data, &ip, &signedAt); err != nil {
		return nil, err
	}
	sig.SignerID = signerID.String
	sig.Email = email.String
	sig.Role = role.String
	sig.SignatureData = data.String
	sig.IPAddress = ip.String
	sig.SignedAt, _ = time.Parse(timeLayout, signedAt)
	return &sig, nil
}

// Signatures returns a document's signatures in signing order.
func (s *Store) Signatures(ctx context.Context, documentID string) ([]types.Signature, error) {
	if _, err := s.Get(ctx, documentID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+signatureColumns+` FROM signatures WHERE document_id = ? ORDER BY signed_at, rowid`, documentID)
	if err != nil {
		return nil, fmt.Errorf("listing signatures: %w", err)
	}
	defer rows.Close()

	sigs := []types.Signature{}
	for rows.Next() {
		sig, err := scanSignature(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning signature: %w", err)
		}
		sigs = append(sigs, *sig)
	}
	return sigs, rows.Err()
}

// Signature returns one signature by id.
func (s *Store) Signature(ctx context.Context, id string) (*types.Signature, error) {
	sig, err := scanSignature(s.db.QueryRowContext(ctx,
		`SELECT `+signatureColumns+` FROM signatures WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("signature %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading signature %s: %w", id, err)
	}
	return sig, nil
}

// VerifySignature reports whether a stored signature is intact: it must
// carry signature data and belong to an existing document.
func (s *Store) VerifySignature(ctx context.Context, id string) (*types.SignatureVerification, error) {
	sig, err := s.Signature(ctx, id)
	if err != nil {
		return nil, err
	}
	_, docErr := s.Get(ctx, sig.DocumentID)
	if docErr != nil && !errors.Is(docErr, ErrNotFound) {
		return nil, docErr
	}
	return &types.SignatureVerification{
		SignatureID: sig.ID,
		IsValid:     docErr == nil && sig.SignatureData != "",
		SignedAt:    sig.SignedAt,
		IPAddress:   sig.IPAddress,
		VerifiedAt:  s.Now().UTC(),
	}, nil
}

// DeleteSignature removes one signature. The document status is left as is.
func (s *Store) DeleteSignature(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM signatures WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting signature %s: %w", id, err)
	}
	return affected(res, "signature", id)
}
