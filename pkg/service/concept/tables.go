package concept

// conceptEntry pairs a lookup key with the generic concepts it expands to.
// Tables are ordered slices, not maps: lookup stops at the first match, so
// more specific keys must come before their substrings.
type conceptEntry struct {
	key      string
	concepts []string
}

var diagnosisConcepts = []conceptEntry{
	// Diabetes variants
	{"type 2 diabetes mellitus", []string{"diabetes", "glycemic", "a1c", "blood sugar", "metabolic"}},
	{"type 2 diabetes", []string{"diabetes", "glycemic", "a1c", "blood sugar", "metabolic"}},
	{"diabetes mellitus", []string{"diabetes", "glycemic", "a1c", "blood sugar", "metabolic"}},
	{"diabetes", []string{"diabetes", "glycemic", "a1c", "blood sugar", "metabolic"}},
	{"dm", []string{"diabetes", "glycemic", "a1c", "blood sugar", "metabolic"}},
	{"t2dm", []string{"diabetes", "glycemic", "a1c", "blood sugar", "metabolic"}},

	// Hypertension variants
	{"essential hypertension", []string{"hypertension", "blood pressure", "cardiovascular", "antihypertensive"}},
	{"hypertension", []string{"hypertension", "blood pressure", "cardiovascular", "antihypertensive"}},
	{"htn", []string{"hypertension", "blood pressure", "cardiovascular", "antihypertensive"}},
	{"high blood pressure", []string{"hypertension", "blood pressure", "cardiovascular", "antihypertensive"}},

	// Kidney disease
	{"chronic kidney disease", []string{"kidney", "renal", "ckd", "nephropathy", "egfr"}},
	{"ckd", []string{"kidney", "renal", "ckd", "nephropathy", "egfr"}},
	{"diabetic nephropathy", []string{"kidney", "renal", "nephropathy", "diabetic complications"}},

	// Cardiovascular
	{"coronary artery disease", []string{"cardiovascular", "heart", "cad", "coronary"}},
	{"cad", []string{"cardiovascular", "heart", "cad", "coronary"}},
	{"heart failure", []string{"cardiovascular", "heart failure", "cardiac", "hfref"}},
	{"atrial fibrillation", []string{"cardiovascular", "arrhythmia", "afib", "anticoagulation"}},

	// Lipid disorders
	{"hyperlipidemia", []string{"lipids", "cholesterol", "statin", "cardiovascular risk"}},
	{"dyslipidemia", []string{"lipids", "cholesterol", "statin", "cardiovascular risk"}},

	// Other common conditions
	{"obesity", []string{"obesity", "weight management", "bmi", "metabolic"}},
	{"peripheral neuropathy", []string{"neuropathy", "diabetic complications", "nerve"}},
	{"retinopathy", []string{"retinopathy", "diabetic complications", "eye", "vision"}},
}

var medicationClassConcepts = map[string][]string{
	"ace_arb":                 {"ace inhibitor", "arb", "angiotensin", "renoprotective", "antihypertensive"},
	"metformin":               {"metformin", "biguanide", "first-line diabetes", "glycemic control"},
	"statin":                  {"statin", "lipid lowering", "cardiovascular prevention", "cholesterol"},
	"sglt2":                   {"sglt2 inhibitor", "cardiorenal protection", "glycemic control"},
	"glp1":                    {"glp1 agonist", "weight loss", "glycemic control", "cardiovascular benefit"},
	"insulin":                 {"insulin", "glycemic control", "basal", "bolus"},
	"beta_blocker":            {"beta blocker", "heart rate", "cardiovascular", "antihypertensive"},
	"calcium_channel_blocker": {"calcium channel blocker", "antihypertensive", "blood pressure"},
	"diuretic":                {"diuretic", "fluid management", "blood pressure", "edema"},
	"anticoagulant":           {"anticoagulation", "blood thinner", "stroke prevention"},
}

var metricConcepts = map[string][]string{
	"a1c":            {"a1c", "glycemic control", "hemoglobin a1c", "diabetes management"},
	"blood_pressure": {"blood pressure", "hypertension management", "bp target", "cardiovascular"},
	"ldl":            {"ldl", "cholesterol", "lipid management", "cardiovascular risk"},
	"egfr":           {"egfr", "kidney function", "renal", "ckd staging"},
	"bmi":            {"bmi", "weight", "obesity", "metabolic"},
}

var gapTypeConcepts = map[string][]string{
	"A1C_THRESHOLD":     {"a1c", "glycemic control", "diabetes target", "hba1c goal"},
	"HTN_ACE_ARB":       {"ace inhibitor", "arb", "diabetes hypertension", "renoprotection"},
	"BP_CONTROL":        {"blood pressure", "hypertension control", "bp target", "antihypertensive"},
	"STATIN_DIABETES":   {"statin", "diabetes cardiovascular", "lipid therapy"},
	"KIDNEY_MONITORING": {"kidney function", "egfr", "renal monitoring", "ckd"},
}
