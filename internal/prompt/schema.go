package prompt

import "github.com/heme-genetics-advisor/internal/domain"

func stringNode(description string) *domain.SchemaDescriptor {
	return &domain.SchemaDescriptor{Type: domain.SchemaString, Description: description}
}

func stringListNode(description string) *domain.SchemaDescriptor {
	return &domain.SchemaDescriptor{
		Type:        domain.SchemaArray,
		Description: description,
		Items:       &domain.SchemaDescriptor{Type: domain.SchemaString},
	}
}

const (
	singleLevels = `只能是 "良好", "中等", "预后差", "未知" 之一`
	dualLevels   = `只能是 "良好", "中等", "预后差", "未知", "未列出" 之一`
)

// reportNode describes one report object. Single-report replies carry their own
// disclaimer and never use the not-listed tag.
func reportNode(single bool) *domain.SchemaDescriptor {
	levels := dualLevels
	if single {
		levels = singleLevels
	}
	node := &domain.SchemaDescriptor{
		Type: domain.SchemaObject,
		Properties: map[string]*domain.SchemaDescriptor{
			"prognosisLevel":       stringNode(levels),
			"summary":              stringNode("一句话总结核心结论"),
			"clinicalSignificance": stringListNode("具体的临床意义点"),
			"recommendations":      stringListNode("后续检查与诊疗建议"),
			"targetedTherapy":      stringNode("靶向药物名称，没有则留空"),
		},
		Required: []string{"prognosisLevel", "summary", "clinicalSignificance", "recommendations"},
		Order:    []string{"prognosisLevel", "summary", "clinicalSignificance", "recommendations", "targetedTherapy"},
	}
	if single {
		node.Properties["disclaimer"] = stringNode("固定免责声明")
		node.Required = append(node.Required, "disclaimer")
		node.Order = append(node.Order, "disclaimer")
	}
	return node
}

// SingleReportSchema is the output contract of single-report mode.
var SingleReportSchema = reportNode(true)

// DualReportSchema is the output contract of dual-report mode: two report slots
// and one shared disclaimer.
var DualReportSchema = &domain.SchemaDescriptor{
	Type: domain.SchemaObject,
	Properties: map[string]*domain.SchemaDescriptor{
		"scccgReport":  reportNode(false),
		"globalReport": reportNode(false),
		"disclaimer":   stringNode("固定免责声明"),
	},
	Required: []string{"scccgReport", "globalReport", "disclaimer"},
	Order:    []string{"scccgReport", "globalReport", "disclaimer"},
}
