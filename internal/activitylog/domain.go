package activitylog

// Action is a domain-specific action tag such as "contribution_added".
type Action string

// Domain names one activity log: where it is stored and how its actions read.
type Domain struct {
	Name       string
	StorageKey string
	Labels     map[Action]string
}

// Life XP actions.
const (
	BucketCreated          Action = "bucket_created"
	BucketUpdated          Action = "bucket_updated"
	BucketDeleted          Action = "bucket_deleted"
	BucketAchieved         Action = "bucket_achieved"
	BucketReactivated      Action = "bucket_reactivated"
	ContributionAdded      Action = "contribution_added"
	ContributionMarkedDone Action = "contribution_marked_done"
)

// Plan actions.
const (
	PremiumPaid    Action = "premium_paid"
	PlanCreated    Action = "plan_created"
	PlanUpdated    Action = "plan_updated"
	PlanDeleted    Action = "plan_deleted"
	PlanExpiredAck Action = "plan_expired_ack"
	HistoryAdded   Action = "history_added"
)

// Actions shared by both vocabularies.
const (
	HistoryUpdated Action = "history_updated"
	HistoryDeleted Action = "history_deleted"
)

// LifeXP is the savings bucket log.
var LifeXP = Domain{
	Name:       "life_xp",
	StorageKey: "lifeXpActivityLog",
	Labels: map[Action]string{
		BucketCreated:          "Bucket Created",
		BucketUpdated:          "Bucket Updated",
		BucketDeleted:          "Bucket Deleted",
		BucketAchieved:         "Goal Achieved",
		BucketReactivated:      "Bucket Reactivated",
		ContributionAdded:      "Contribution Added",
		ContributionMarkedDone: "Contribution Marked Done",
		HistoryUpdated:         "History Updated",
		HistoryDeleted:         "History Deleted",
	},
}

// Plans is the insurance plan log.
var Plans = Domain{
	Name:       "plans",
	StorageKey: "plansActivityLog",
	Labels: map[Action]string{
		PremiumPaid:    "Premium Paid",
		PlanCreated:    "Plan Created",
		PlanUpdated:    "Plan Updated",
		PlanDeleted:    "Plan Deleted",
		PlanExpiredAck: "Expiry Acknowledged",
		HistoryAdded:   "History Added",
		HistoryUpdated: "History Updated",
		HistoryDeleted: "History Deleted",
	},
}

// Label returns the display phrase for action. Unknown actions read as
// their raw tag.
func (d Domain) Label(action Action) string {
	if label, ok := d.Labels[action]; ok {
		return label
	}
	return string(action)
}
