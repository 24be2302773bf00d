package ports

import "github.com/midnightlabs/midnight/internal/core/domain"

// Local document keys.
const (
	SessionDocument = "midnight-auth"
	DataDocument    = "midnight-data"
)

// LocalPersistence stores the two local documents. Load methods return
// ok=false when the document was never written.
type LocalPersistence interface {
	LoadSession() (snap domain.SessionSnapshot, ok bool, err error)
	SaveSession(snap domain.SessionSnapshot) error
	LoadData() (data domain.Collections, ok bool, err error)
	SaveData(data domain.Collections) error
}
