package workflow

// Step is a wizard step. Steps advance in the fixed forward order below;
// the only backward edges are the exact inverses.
type Step int

const (
	StepChat             Step = iota - 1 // -1
	StepProductSelection                 // 0
	StepApplicantDetails                 // 1
	StepProductDetails                   // 2
	StepDocumentUpload                   // 3
	StepReview                           // 4
	StepAgreement                        // 5
	StepCompletion                       // 6
)

var stepNames = map[Step]string{
	StepChat:             "chat",
	StepProductSelection: "product_selection",
	StepApplicantDetails: "applicant_details",
	StepProductDetails:   "product_details",
	StepDocumentUpload:   "document_upload",
	StepReview:           "review",
	StepAgreement:        "agreement",
	StepCompletion:       "completion",
}

func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return "unknown"
}
