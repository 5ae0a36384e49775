package parentage

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/upb/ami-parentage/models"
	"github.com/upb/ami-parentage/services"
	"github.com/upb/ami-parentage/utils"
)

// MapToRow converts a CreateImage record into a parentage row.
// It has no side effects; the same record always yields the same row.
func MapToRow(record models.Record) (*models.ParentageRow, error) {
	view, err := imageCreation(record)
	if err != nil {
		return nil, err
	}

	email, err := userEmail(view.PrincipalID)
	if err != nil {
		return nil, err
	}

	created, err := time.ParseInLocation(models.EventTimeLayout, view.EventTime, time.UTC)
	if err == nil && created.Format(models.EventTimeLayout) != view.EventTime {
		// time.Parse tolerates fractional seconds the layout does not name
		err = fmt.Errorf("unexpected trailing precision in %q", view.EventTime)
	}
	if err != nil {
		return nil, fieldError(record, "eventTime does not match "+models.EventTimeLayout, err).
			WithDetail("eventTime", view.EventTime)
	}

	return &models.ParentageRow{
		AWSAccountID: view.AccountID,
		UserEmail:    email,
		CreationDate: created,
		AMIID:        view.ImageID,
		ParentID:     view.InstanceID,
	}, nil
}

// imageCreation decodes the nested sections of record and checks every
// required field at once
func imageCreation(record models.Record) (*models.ImageCreation, error) {
	var req models.CreateImageRequest
	if err := decodeSection(record.RequestParameters, &req); err != nil {
		return nil, fieldError(record, "requestParameters is not a CreateImage request", err)
	}
	var resp models.CreateImageResponse
	if err := decodeSection(record.ResponseElements, &resp); err != nil {
		return nil, fieldError(record, "responseElements is not a CreateImage response", err)
	}

	view := &models.ImageCreation{
		EventTime:  record.EventTime,
		ImageID:    resp.ImageID,
		InstanceID: req.InstanceID,
	}
	if record.UserIdentity != nil {
		view.AccountID = record.UserIdentity.AccountID
		view.PrincipalID = record.UserIdentity.PrincipalID
	}

	if err := utils.ValidateStruct(view); err != nil {
		var vErr *utils.ValidationError
		if errors.As(err, &vErr) {
			missing := vErr.FieldNames()
			return nil, fieldError(record, "missing required fields: "+strings.Join(missing, ", "), nil).
				WithDetail("fields", missing)
		}
		return nil, fieldError(record, "record validation failed", err)
	}
	return view, nil
}

// decodeSection unmarshals a raw JSON object; absent and null sections leave
// dst zero-valued so validation reports them as missing fields
func decodeSection(raw json.RawMessage, dst interface{}) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

// userEmail returns the segment after the first colon of a principal ID such
// as "AIDAEXAMPLE:alice@example.com"
func userEmail(principalID string) (string, error) {
	parts := strings.Split(principalID, ":")
	if len(parts) < 2 {
		return "", services.NewDomainError(services.ErrorTypeFieldExtraction,
			"principalId has no session segment", nil).
			WithDetail("principalId", principalID)
	}
	return parts[1], nil
}

func fieldError(record models.Record, message string, err error) *services.DomainError {
	return services.NewDomainError(services.ErrorTypeFieldExtraction, message, err).
		WithDetail("eventName", record.EventName).
		WithDetail("eventID", record.EventID)
}

// Describe renders a row the way operators read it in logs and the replay CLI
func Describe(row *models.ParentageRow, eventName string) string {
	return fmt.Sprintf("User: %s\nAWS Account Id: %s\nEvent Time: %s\nEvent Name: %s\nNew AMI Id: %s\nParent Id: %s\n",
		row.UserEmail,
		row.AWSAccountID,
		row.CreationDate.Format(time.DateTime),
		eventName,
		row.AMIID,
		row.ParentID,
	)
}
