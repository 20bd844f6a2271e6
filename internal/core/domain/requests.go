package domain

// WriteRequest is the payload of a write operation sent upstream.
type WriteRequest interface {
	Operation() WriteOperation
}

// SyncRequest asks upstream to pull fresh data from the connected institutions.
type SyncRequest struct{}

// ToggleItemRequest enables or disables tracking of a recurring item.
type ToggleItemRequest struct {
	ItemID  string
	Enabled bool
}

// AllocateFundsRequest sets this month's budget of a stash item.
type AllocateFundsRequest struct {
	StashID string
	Amount  Money
}

// AllocateFundsBatchRequest sets the budget of several stash items at once.
type AllocateFundsBatchRequest struct {
	Allocations []AllocateFundsRequest
}

// SetRecurringBudgetRequest sets this month's budget of a recurring item.
type SetRecurringBudgetRequest struct {
	ItemID string
	Amount Money
}

// CreateStashRequest creates a stash item. The ID is chosen by the client.
type CreateStashRequest struct {
	ID           string
	Name         string
	TargetAmount Money
	TargetDate   Date
}

// UpdateStashRequest replaces the editable fields of a stash item.
type UpdateStashRequest struct {
	ID           string
	Name         string
	TargetAmount Money
	TargetDate   Date
}

// DeleteStashRequest deletes a stash item.
type DeleteStashRequest struct {
	ID string
}

// ArchiveStashRequest archives a stash item.
type ArchiveStashRequest struct {
	ID string
}

// UnarchiveStashRequest restores an archived stash item.
type UnarchiveStashRequest struct {
	ID string
}

// ReorderStashRequest sets the display order of stash items.
type ReorderStashRequest struct {
	IDs []string
}

// CompleteStashRequest marks a stash item as reached and archives it.
type CompleteStashRequest struct {
	ID string
}

// SkipPendingRequest dismisses a pending bookmark.
type SkipPendingRequest struct {
	ID string
}

// ConvertPendingRequest turns a pending bookmark into a stash item.
type ConvertPendingRequest struct {
	ID           string
	StashID      string
	TargetAmount Money
	TargetDate   Date
}

// LinkGoalRequest links a stash item to an upstream goal.
type LinkGoalRequest struct {
	StashID string
	GoalID  string
}

// SaveMonthNoteRequest stores the note of a month.
type SaveMonthNoteRequest struct {
	Month string
	Body  string
}

// DeleteMonthNoteRequest removes the note of a month.
type DeleteMonthNoteRequest struct {
	Month string
}

// UpdateSettingsRequest replaces the application settings.
type UpdateSettingsRequest struct {
	Settings Settings
}

// UpdateStashConfigRequest replaces the stash preferences.
type UpdateStashConfigRequest struct {
	Config StashConfig
}

// AddToRollupRequest moves a recurring item into the rollup budget.
type AddToRollupRequest struct {
	ItemID string
}

// RemoveFromRollupRequest moves a recurring item out of the rollup budget.
type RemoveFromRollupRequest struct {
	ItemID string
}

// LinkCategoryRequest links a recurring item to an upstream category.
type LinkCategoryRequest struct {
	ItemID     string
	CategoryID string
}

func (SyncRequest) Operation() WriteOperation               { return OpSync }
func (ToggleItemRequest) Operation() WriteOperation         { return OpToggleItem }
func (AllocateFundsRequest) Operation() WriteOperation      { return OpAllocateFunds }
func (AllocateFundsBatchRequest) Operation() WriteOperation { return OpAllocateFundsBatch }
func (SetRecurringBudgetRequest) Operation() WriteOperation { return OpSetRecurringBudget }
func (CreateStashRequest) Operation() WriteOperation        { return OpCreateStash }
func (UpdateStashRequest) Operation() WriteOperation        { return OpUpdateStash }
func (DeleteStashRequest) Operation() WriteOperation        { return OpDeleteStash }
func (ArchiveStashRequest) Operation() WriteOperation       { return OpArchiveStash }
func (UnarchiveStashRequest) Operation() WriteOperation     { return OpUnarchiveStash }
func (ReorderStashRequest) Operation() WriteOperation       { return OpReorderStash }
func (CompleteStashRequest) Operation() WriteOperation      { return OpCompleteStash }
func (SkipPendingRequest) Operation() WriteOperation        { return OpSkipPending }
func (ConvertPendingRequest) Operation() WriteOperation     { return OpConvertPending }
func (LinkGoalRequest) Operation() WriteOperation           { return OpLinkGoal }
func (SaveMonthNoteRequest) Operation() WriteOperation      { return OpSaveMonthNote }
func (DeleteMonthNoteRequest) Operation() WriteOperation    { return OpDeleteMonthNote }
func (UpdateSettingsRequest) Operation() WriteOperation     { return OpUpdateSettings }
func (UpdateStashConfigRequest) Operation() WriteOperation  { return OpUpdateStashConfig }
func (AddToRollupRequest) Operation() WriteOperation        { return OpAddToRollup }
func (RemoveFromRollupRequest) Operation() WriteOperation   { return OpRemoveFromRollup }
func (LinkCategoryRequest) Operation() WriteOperation       { return OpLinkCategory }
