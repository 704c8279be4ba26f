package chat

import "strings"

var activityChecklists = []struct {
	activity string
	items    []string
}{
	{"laurea", []string{
		"Preparare presentazione PowerPoint (15-20 minuti)",
		"Stampare copie della tesi per la commissione",
		"Preparare ringraziamenti",
		"Testare proiettore e computer",
		"Preparare backup su USB",
		"Provare la presentazione",
		"Preparare outfit formale",
		"Controllare orario e ubicazione aula",
		"Portare documento di identità",
	}},
	{"tesi", []string{
		"Completare tutti i capitoli",
		"Revisione finale con il relatore",
		"Controllo ortografico e grammaticale",
		"Impaginazione definitiva",
		"Stampa e rilegatura",
		"Preparare abstract",
		"Raccogliere feedback da correlatori",
		"Backup digitale sicuro",
	}},
	{"seminario", []string{
		"Definire obiettivi del seminario",
		"Preparare materiale didattico",
		"Testare attrezzature audiovisive",
		"Preparare handout per partecipanti",
		"Controllare sistema di registrazione presenze",
		"Preparare domande per discussione",
		"Testare connessione internet",
		"Preparare piano B per problemi tecnici",
	}},
}

var genericChecklist = []string{
	"Preparare materiali necessari",
	"Controllare attrezzature",
	"Confermare partecipanti",
	"Testare tecnologia",
	"Preparare backup",
	"Verificare orario e luogo",
}

var professorChecklist = []string{
	"Verificare presenza assistenti",
	"Preparare registro presenze",
	"Controllare sistema di valutazione",
}

// Checklist picks the list for the first known activity mentioned in text.
// The returned slice is a fresh copy.
func Checklist(text string) (activity string, items []string) {
	lower := strings.ToLower(text)
	for _, c := range activityChecklists {
		if strings.Contains(lower, c.activity) {
			return c.activity, append([]string(nil), c.items...)
		}
	}
	return "generico", append([]string(nil), genericChecklist...)
}
