package tasks

// TaskSchedulerInterface is what the API layer sees of the background
// runner: lifecycle control plus manual pipeline triggers.
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
	TriggerRefresh() bool
	TriggerWarm() bool
}
