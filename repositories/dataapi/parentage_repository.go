package dataapi

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rdsdata"
	"github.com/aws/aws-sdk-go-v2/service/rdsdata/types"
	"github.com/aws/smithy-go"
	"github.com/upb/ami-parentage/config"
	"github.com/upb/ami-parentage/models"
	"github.com/upb/ami-parentage/repositories"
	"github.com/upb/ami-parentage/services"
	"go.uber.org/zap"
)

// timestampLayout is the literal format the Data API expects for TIMESTAMP hints
const timestampLayout = "2006-01-02 15:04:05"

// parameterNames are the named parameters bound to models.ParentageColumns
var parameterNames = []string{"account_id", "user_email", "creation_date", "ami_id", "parent_id"}

// API is the subset of the Data API client the repository calls
type API interface {
	ExecuteStatement(ctx context.Context, params *rdsdata.ExecuteStatementInput, optFns ...func(*rdsdata.Options)) (*rdsdata.ExecuteStatementOutput, error)
}

// ParentageRepository writes parentage rows through the Aurora Data API
type ParentageRepository struct {
	client API
	cfg    config.DataAPIConfig
	query  string
	logger *zap.Logger
}

// NewParentageRepository creates a Data API backed writer
func NewParentageRepository(client API, cfg config.DataAPIConfig, logger *zap.Logger) *ParentageRepository {
	placeholders := make([]string, len(parameterNames))
	for i, name := range parameterNames {
		placeholders[i] = ":" + name
	}
	return &ParentageRepository{
		client: client,
		cfg:    cfg,
		query: fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			cfg.Table,
			strings.Join(models.ParentageColumns, ", "),
			strings.Join(placeholders, ", "),
		),
		logger: logger,
	}
}

// Open returns a session. The Data API is connectionless, so nothing is held.
func (r *ParentageRepository) Open(ctx context.Context) (repositories.ParentageSession, error) {
	return &session{repo: r}, nil
}

type session struct {
	repo *ParentageRepository
}

// Insert executes one INSERT statement
func (s *session) Insert(ctx context.Context, row *models.ParentageRow) (int64, error) {
	r := s.repo
	out, err := r.client.ExecuteStatement(ctx, &rdsdata.ExecuteStatementInput{
		ResourceArn: aws.String(r.cfg.ResourceARN),
		SecretArn:   aws.String(r.cfg.SecretARN),
		Database:    aws.String(r.cfg.Database),
		Sql:         aws.String(r.query),
		Parameters:  parameters(row),
	})
	if err != nil {
		domainErr := services.NewDomainError(services.ErrorTypeWrite, "data api insert failed", err).
			WithDetail("table", r.cfg.Table).
			WithDetail("ami_id", row.AMIID)
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			domainErr.WithDetail("aws_error_code", apiErr.ErrorCode())
		}
		return 0, domainErr
	}

	r.logger.Info("parentage row inserted",
		zap.String("table", r.cfg.Table),
		zap.String("database", r.cfg.Database),
		zap.String("ami_id", row.AMIID),
		zap.String("parent_id", row.ParentID),
		zap.Int64("rows_affected", out.NumberOfRecordsUpdated))
	return out.NumberOfRecordsUpdated, nil
}

// Close is a no-op
func (s *session) Close() error {
	return nil
}

func parameters(row *models.ParentageRow) []types.SqlParameter {
	values := []string{
		row.AWSAccountID,
		row.UserEmail,
		row.CreationDate.UTC().Format(timestampLayout),
		row.AMIID,
		row.ParentID,
	}
	params := make([]types.SqlParameter, len(values))
	for i, v := range values {
		params[i] = types.SqlParameter{
			Name:  aws.String(parameterNames[i]),
			Value: &types.FieldMemberStringValue{Value: v},
		}
	}
	params[2].TypeHint = types.TypeHintTimestamp
	return params
}
