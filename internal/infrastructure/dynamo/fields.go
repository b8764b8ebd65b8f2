package dynamo

// DynamoDB attribute names used in expressions.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldUserID          = "user_id"
	fieldUpdatedAt       = "updated_at"
	fieldVerification    = "verification"
	fieldVerificationKey = fieldVerification + ".key"
)
