package observability

// Metric name prefixes
const (
	MetricPrefix = "streameconomy"
)

// Metric names
const (
	// Use case metrics
	UseCasesTotal   = MetricPrefix + ".usecases.total"
	UseCaseDuration = MetricPrefix + ".usecases.duration"

	// Progression metrics
	LevelUpsTotal = MetricPrefix + ".progression.level_ups_total"

	// NATS metrics
	NATSMessagesReceivedTotal  = MetricPrefix + ".nats.messages_received_total"
	NATSMessagesPublishedTotal = MetricPrefix + ".nats.messages_published_total"

	// Fanout metrics
	FanoutDeliveriesTotal = MetricPrefix + ".fanout.deliveries_total"

	// Balance metrics
	BalanceTransactionsTotal = MetricPrefix + ".balance.transactions_total"
)

// Label keys
const (
	LabelType      = "type"
	LabelEventType = "event_type"
	LabelUseCase   = "use_case"
	LabelOutcome   = "outcome"
	LabelSubject   = "subject"
	LabelChannel   = "channel"
)

// Outcomes
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Level-up kinds
const (
	LevelUpViewer   = "viewer"
	LevelUpStreamer = "streamer"
)
