package types

// Role classifies a badge holder. Admins may enter enrollment mode and
// leave the door propped open; students get a bounded borrow window.
type Role int

const (
	RoleUnknown Role = iota
	RoleAdmin
	RoleStudent
)

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleStudent:
		return "student"
	default:
		return "unknown"
	}
}

// Identity is one row of the admins or students table: a badge id and the
// human-readable name entered during enrollment.
type Identity struct {
	BadgeID string
	Name    string
}

// Item is one row of the inventory table: an RFID tag id and the item name
// it was enrolled under.
type Item struct {
	TagID string
	Name  string
}

// Table names the three durable roster tables. The values double as the
// remote worksheet names.
type Table string

const (
	TableAdmins    Table = "ADMINS"
	TableStudents  Table = "STUDENTS"
	TableInventory Table = "INVENTORY"
)
