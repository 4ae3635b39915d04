package ports

// SchedulerService runs periodic tasks such as the settlement of expired
// challenge windows.
type SchedulerService interface {
	Start()
	Stop()

	// ScheduleTask runs task every interval seconds, right away if immediate.
	ScheduleTask(interval int64, immediate bool, task func()) error
}
