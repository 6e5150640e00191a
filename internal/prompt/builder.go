// Package prompt assembles the instruction, user message and output schema sent
// to the model for one submission. Everything here is pure string construction.
package prompt

import (
	"fmt"

	"github.com/heme-genetics-advisor/internal/domain"
)

// NotCoveredTag marks conclusions drawn from outside the reference document.
const NotCoveredTag = "SCCCG方案未收录"

// ResponseMIMEType is the structured output format requested from every provider.
const ResponseMIMEType = "application/json"

// Request is the provider-neutral prompt for one submission.
type Request struct {
	Instruction string
	UserMessage string
	Schema      *domain.SchemaDescriptor
}

// ModelRequest converts the prompt into the request handed to a model client.
func (r Request) ModelRequest(enableWebRetrieval bool) *domain.ModelRequest {
	return &domain.ModelRequest{
		Instruction:        r.Instruction,
		UserMessage:        r.UserMessage,
		Schema:             r.Schema,
		EnableWebRetrieval: enableWebRetrieval,
		ResponseMIMEType:   ResponseMIMEType,
	}
}

const singleInstructionTemplate = `你是一位血液肿瘤遗传学临床专家。你的任务是根据提供的内部协作方案（SCCCG）文档回答有关基因和染色体异常的临床意义查询。

内部文档内容：
%s

查询逻辑：
- 首先检索上述 SCCCG 内部方案。
- 若内部方案中没有该检查结果的记录，再查询国际权威共识（NCCN/WHO/ELN），并在 summary 开头明确注明“%s”。
- 区分“内部结论”与“国际结论”。

输出要求：
1. 必须输出符合给定 JSON 结构的合法 JSON。
2. 禁止使用任何 Markdown 符号，如 #, *, -, ` + "`" + ` 等。
3. 语言：中文回答，基因名称、染色体核型等专业术语保留标准英文写法。

JSON 结构字段说明：
- prognosisLevel: 只能是 "良好", "中等", "预后差", "未知" 之一。
- summary: 一句话总结核心结论。
- clinicalSignificance: 字符串数组，列出具体的临床意义点。
- recommendations: 字符串数组，列出后续检查建议。
- targetedTherapy: 如果有靶向药，列出药物名称，否则留空。
- disclaimer: 固定免责声明。
`

const dualInstructionTemplate = `你是一位血液肿瘤遗传学临床专家。你的任务是出具两份独立的临床分析报告。

报告1：SCCCG内部方案报告（scccgReport）
- 必须严格仅依据提供的内部方案（SCCCG）文档。
- 内部文档内容：
%s
- 如果输入的结果在SCCCG方案中未提及，请在 prognosisLevel 标记为 "未列出"，并在 summary 中注明“%s”。

报告2：全球权威数据库报告（globalReport）
- 依据国际最新共识（NCCN 2024, WHO 5th Edition, ELN 2022）。
- 使用网络检索工具校准最新临床标准。

输出要求：
1. 必须输出符合给定 JSON 结构的合法 JSON。
2. 禁止使用任何 Markdown 标记。
3. 语言：中文回答，基因名称、染色体核型等专业术语保留标准英文写法。
4. prognosisLevel 只能是 "良好", "中等", "预后差", "未知", "未列出" 之一。
`

// Build returns the single-report prompt. Callers reject blank findings first.
func Build(disease domain.DiseaseCategory, findings string) Request {
	return Request{
		Instruction: fmt.Sprintf(singleInstructionTemplate, domain.ReferenceDocument, NotCoveredTag),
		UserMessage: UserMessage(disease, findings),
		Schema:      SingleReportSchema,
	}
}

// BuildDual returns the dual-report prompt.
func BuildDual(disease domain.DiseaseCategory, findings string) Request {
	return Request{
		Instruction: fmt.Sprintf(dualInstructionTemplate, domain.ReferenceDocument, NotCoveredTag),
		UserMessage: UserMessage(disease, findings),
		Schema:      DualReportSchema,
	}
}

// UserMessage puts the disease label and the raw findings on their own lines.
func UserMessage(disease domain.DiseaseCategory, findings string) string {
	return fmt.Sprintf("疾病类型：%s\n检查结果：%s", disease.Label(), findings)
}
