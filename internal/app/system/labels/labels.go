// Package labels translates API field names and enum values into the
// Bosnian copy shown in the dashboard.
package labels

import "github.com/dalemusser/gradebook/internal/domain/models"

// Key returns the column label for an API field name, or the name itself
// when there is no translation.
func Key(key string) string {
	if l, ok := keyLabels[key]; ok {
		return l
	}
	return key
}

// Value returns the display text for a raw field value. Unknown values are
// shown as they are; null shows as "Nije postavljeno".
func Value(v any) string {
	if v == nil {
		return valueLabels["null"]
	}
	s := models.Item{"v": v}.String("v")
	if l, ok := valueLabels[s]; ok {
		return l
	}
	return s
}

// ValueClass returns the text color class for values that carry meaning
// (invite status, yes/no), or "" for ordinary values.
func ValueClass(v any) string {
	s := models.Item{"v": v}.String("v")
	return valueClasses[s]
}

var keyLabels = map[string]string{
	"name":                            "Ime",
	"address":                         "Adresa",
	"city":                            "Grad",
	"email":                           "Email",
	"type":                            "Tip",
	"canton":                          "Kanton",
	"canton_code":                     "Kanton kod",
	"canton_name":                     "Naziv kantona",
	"tenant_name":                     "Naziv institucije",
	"phone":                           "Telefon",
	"director_name":                   "Ime direktora",
	"tenant_type":                     "Tip institucije",
	"last_name":                       "Prezime",
	"role":                            "Uloga",
	"curriculum_name":                 "Naziv kurikuluma",
	"class_code":                      "Razred",
	"npp_name":                        "Tip nastavnog plana i programa",
	"year":                            "Godina",
	"homeroom_teacher_email":          "Email razrednika",
	"homeroom_teacher_full_name":      "Ime i prezime razrednika",
	"semester_name":                   "Polugodište",
	"gender":                          "Spol",
	"date_of_birth":                   "Datum rođenja",
	"place_of_birth":                  "Mjesto rođenja",
	"guardian_name":                   "Ime staratelja",
	"phone_number":                    "Broj telefona",
	"guardian_number":                 "Broj telefona staratelja",
	"attends_religion":                "Pohađa vjeronauku",
	"religion":                        "Vjeronauka",
	"end_date":                        "Datum kraja",
	"start_date":                      "Datum početka",
	"status":                          "Status",
	"invite_date":                     "Datum poziva",
	"domain":                          "Domena",
	"section_name":                    "Naziv odjeljenja",
	"pupil_full_name":                 "Ime i prezime učenika",
	"subject_name":                    "Naziv predmeta",
	"teacher_full_name":               "Ime i prezime nastavnika",
	"homeroom_teacher":                "Razrednik",
	"teacher_email":                   "Email nastavnika",
	"pupil_email":                     "Email učenika",
	"tenant_city":                     "Grad institucije",
	"contractions":                    "Oslovljavanje",
	"title":                           "Titula",
	"specialization":                  "Usmjerenje",
	"course_code":                     "Šifra smjera",
	"course_name":                     "Naziv smjera",
	"behaviour_determined_by_teacher": "Odredio nastavnik",
}

var valueLabels = map[string]string{
	"primary":              "Osnovna škola",
	"secondary":            "Srednja škola",
	"superadmin":           "Super admin",
	"tenant_admin":         "Školski admin",
	"teacher":              "Profesor",
	"M":                    "Muški",
	"F":                    "Ženski",
	"true":                 "Da",
	"false":                "Ne",
	"Catholic":             "Katolička",
	"Orthodox":             "Pravoslavna",
	"Jewish":               "Jevrejska",
	"Other":                "Ostalo",
	"NotAttendingReligion": "Ne pohađa vjeronauku",
	"None":                 "Nema",
	"pending":              "Na čekanju",
	"accepted":             "Prihvaćen",
	"declined":             "Odbijen",
	"tenant_domain":        "Institucijska domena",
	"global_domain":        "Globalna domena",
	"null":                 "Nije postavljeno",
	"regular":              "Obično",
	"religion":             "Vjersko",
	"musical":              "Muzičko",
}

var valueClasses = map[string]string{
	"pending":  "text-yellow-600",
	"accepted": "text-green-600",
	"declined": "text-red-500",
	"true":     "text-green-600",
	"false":    "text-red-500",
}
