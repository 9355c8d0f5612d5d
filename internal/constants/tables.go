package constants

// Table — таблица с делами, доступная конструктору отчетов.
type Table struct {
	Name       string
	Title      string
	PrimaryKey string
}

// Белый список таблиц
var Tables = []Table{
	{Name: "sudeb_vzisk", Title: "Судебная", PrimaryKey: "№ л/с"},
	{Name: "dos_rabota", Title: "Досудебная", PrimaryKey: "№ л/с"},
	{Name: "base_zayci", Title: "Зайцы", PrimaryKey: "ГРН"},
}

func LookupTable(name string) (Table, bool) {
	for _, t := range Tables {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}

// FormatExcel — единственный формат, который собирает сервер.
const (
	FormatExcel = "excel"
	FormatPDF   = "pdf"

	ReportTypeCustom = "custom"

	ContentTypeExcel = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)
