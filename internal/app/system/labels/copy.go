package labels

// User-facing messages shared across pages.
const (
	AssignError        = "Došlo je do greške prilikom dodijeljivanja."
	UnassignError      = "Došlo je do greške prilikom uklanjanja."
	DeleteInviteError  = "Došlo je do greške prilikom brisanja poziva."
	InviteActionError  = "Greška prilikom prihvatanja poziva."
	InviteLoadError    = "Greška prilikom dohvatanja poziva."
	LoadError          = "Greška prilikom učitavanja podataka."
	PupilsInvited      = "Učenici su uspješno pozvani u odjeljenje."
	SectionsAssigned   = "Zaduženja su sačuvana."
	EmptyState         = "Trenutno nema podataka za prikaz."
	SearchPrompt       = "Unesite pojam za pretragu."
	NoResults          = "Nema rezultata."
	ConfirmDeleteTitle = "Brisanje"
	ConfirmInviteTitle = "Brisanje poziva"
	PageExpired        = "Stranica je istekla. Osvježite stranicu i pokušajte ponovo."
	Archived           = "Odjeljenje je arhivirano."
)
