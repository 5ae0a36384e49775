package models

import "time"

// EventTimeLayout is the timestamp format CloudTrail uses for eventTime
const EventTimeLayout = "2006-01-02T15:04:05Z"

// DefaultTable is the parentage table name used when none is configured
const DefaultTable = "amicreation"

// ParentageRow links a newly created AMI to the instance it was created from
type ParentageRow struct {
	AWSAccountID string    `json:"aws_account_id" yaml:"aws_account_id" db:"AWSAccountId"`
	UserEmail    string    `json:"user_email" yaml:"user_email" db:"UserEmail"`
	CreationDate time.Time `json:"creation_date" yaml:"creation_date" db:"CreationDate"`
	AMIID        string    `json:"ami_id" yaml:"ami_id" db:"AMIId"`
	ParentID     string    `json:"parent_id" yaml:"parent_id" db:"ParentId"`
}

// ParentageColumns lists the table columns in insert order
var ParentageColumns = []string{"AWSAccountId", "UserEmail", "CreationDate", "AMIId", "ParentId"}

// ObjectLocator identifies a stored log object
type ObjectLocator struct {
	Bucket string
	Key    string
}

// String returns the s3-style URI of the object
func (l ObjectLocator) String() string {
	return "s3://" + l.Bucket + "/" + l.Key
}
