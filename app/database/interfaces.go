package database

type SnapshotRepository interface {
	SaveSnapshot(snapshot BriefingSnapshot) error
	GetSnapshot(date string) (*BriefingSnapshot, error)
	GetLatestSnapshot() (*BriefingSnapshot, error)
	ListSnapshots() ([]BriefingSnapshot, error)
	GetSnapshotCount() (int, error)
}
