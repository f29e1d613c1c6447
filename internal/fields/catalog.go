// Package fields maps logical custom-field identities onto tracker field
// handles. The catalog is the single canonical display-name table; the
// resolver performs the store lookups.
package fields

// Language selects the display-name variant. Only English and Russian are
// supported; the Russian name is always the English name plus a literal
// " (ru)" suffix, it is never a separate identity.
type Language string

const (
	LangEN Language = "en"
	LangRU Language = "ru"
)

const ruSuffix = " (ru)"

// Field is a logical custom field. Its value is the canonical English
// display name.
type Field string

const (
	Highlight                    Field = "Highlight"
	ReleaseHighlights            Field = "Release Highlights"
	ManualsToBeUpdated           Field = "Manual(s) To Be Updated"
	ImpactsOn                    Field = "Impacts On"
	ClientIssueIDT               Field = "Client Issue IDT"
	DocumentationStatus          Field = "Documentation Status"
	ApprovedForRelease           Field = "Versions Approved For Release"
	Proofread                    Field = "Proofread"
	ProofreadHighlights          Field = "Highlights"
	ClientReleaseNotes           Field = "Client Release Notes"
	ClientUpgradeNotes           Field = "Client Upgrade Notes"
	Builds                       Field = "Builds"
	Product                      Field = "Product"
	ProductLine                  Field = "Product Line"
	ExpensesItem                 Field = "Expenses Item"
	ExpenseItem                  Field = "Expense Item"
	Customer                     Field = "Customer"
	Customization                Field = "Customization"
	PADSSImpact                  Field = "PA DSS Impact"
	PADSSImpactNotes             Field = "PA DSS Impact Notes"
	CHDImpact                    Field = "CHD Impact"
	ImpactsRequirement           Field = "Impacts PADSS Requirement"
	CRNRequired                  Field = "CRN Required"
	RequiredIssues               Field = "Required Issues"
	IPSRelease                   Field = "IPS Release"
	SubComponentFixVersions      Field = "SubComponent Fix Version/s"
	RCVersions                   Field = "RC Version/s"
	ResolutionDetails            Field = "Resolution Details"
	TestingResolution            Field = "Testing Resolution"
	CheckScript                  Field = "Check Script"
	License                      Field = "License"
	IPSRequirementRegion         Field = "IPS Requirement Region"
	BitbucketRepository          Field = "BitBucket Repository"
	SourceRepository             Field = "Source Repository"
	ChangeApprovedBy             Field = "Change Approved by"
	ImpactsSSFRequirement        Field = "Impacts SSF Requirement"
	SSFImpactNotes               Field = "SSF Impact Notes"
	TestedAgainstSSFRequirements Field = "Tested against SSF requirements"
	EffectiveDate                Field = "Effective Date"
	HotfixTargetType             Field = "Hotfix Target Type"
	System                       Field = "System"
	Sprint                       Field = "Sprint"
	ClearSprintOnResolve         Field = "Clear Sprint on Resolve"
	PDM                          Field = "PDM"
	Developers                   Field = "Developers"
	ApplicationArchitect         Field = "Application Architect"
	SystemArchitect              Field = "System Architect"
	Testers                      Field = "Testers"
	DeliveryConsultants          Field = "Delivery Consultants"
	Techwriters                  Field = "Techwriters"
	Translators                  Field = "Translators"
	NotesVerifiers               Field = "Notes Verifiers"
	Academy                      Field = "Academy"
	ProductMarketingManager      Field = "Product Marketing Manager"
	PrincipalPDM                 Field = "Principal PDM"
	TechLead                     Field = "Tech Lead"
	TestLead                     Field = "Test Lead"
	ReleaseManager               Field = "Release Manager"
	StartSprint                  Field = "Start Sprint"
	EndSprint                    Field = "End Sprint"
)

// catalog is the canonical table, in declaration order.
var catalog = []Field{
	Highlight, ReleaseHighlights, ManualsToBeUpdated, ImpactsOn,
	ClientIssueIDT, DocumentationStatus, ApprovedForRelease, Proofread,
	ProofreadHighlights, ClientReleaseNotes, ClientUpgradeNotes, Builds,
	Product, ProductLine, ExpensesItem, ExpenseItem, Customer,
	Customization, PADSSImpact, PADSSImpactNotes, CHDImpact,
	ImpactsRequirement, CRNRequired, RequiredIssues, IPSRelease,
	SubComponentFixVersions, RCVersions, ResolutionDetails,
	TestingResolution, CheckScript, License, IPSRequirementRegion,
	BitbucketRepository, SourceRepository, ChangeApprovedBy,
	ImpactsSSFRequirement, SSFImpactNotes, TestedAgainstSSFRequirements,
	EffectiveDate, HotfixTargetType, System, Sprint, ClearSprintOnResolve,
	PDM, Developers, ApplicationArchitect, SystemArchitect, Testers,
	DeliveryConsultants, Techwriters, Translators, NotesVerifiers, Academy,
	ProductMarketingManager, PrincipalPDM, TechLead, TestLead,
	ReleaseManager, StartSprint, EndSprint,
}

// sprintEra holds the fields added after the legacy table was frozen. The
// legacy table is a projection of the canonical one, not a parallel copy.
var sprintEra = map[Field]bool{
	Sprint: true, ClearSprintOnResolve: true, PDM: true, Developers: true,
	ApplicationArchitect: true, SystemArchitect: true, Testers: true,
	DeliveryConsultants: true, Techwriters: true, Translators: true,
	NotesVerifiers: true, Academy: true, ProductMarketingManager: true,
	PrincipalPDM: true, TechLead: true, TestLead: true, ReleaseManager: true,
	StartSprint: true, EndSprint: true,
}

var byName = func() map[string]Field {
	m := make(map[string]Field, len(catalog))
	for _, f := range catalog {
		m[string(f)] = f
	}
	return m
}()

// Name returns the canonical English display name.
func (f Field) Name() string { return string(f) }

// LocalizedName returns the display name for the given language. Russian is
// derived by suffixing the English name.
func (f Field) LocalizedName(lang Language) string {
	if lang == LangRU {
		return string(f) + ruSuffix
	}
	return string(f)
}

// All returns the canonical catalog in declaration order.
func All() []Field {
	out := make([]Field, len(catalog))
	copy(out, catalog)
	return out
}

// Legacy returns the older field table still referenced by pre-sprint
// integrations, as a filtered view of the canonical catalog.
func Legacy() []Field {
	out := make([]Field, 0, len(catalog))
	for _, f := range catalog {
		if !sprintEra[f] {
			out = append(out, f)
		}
	}
	return out
}

// ByDisplayName looks up a logical field by exact English display name. The
// suffixed Russian form is a display artifact and does not match.
func ByDisplayName(name string) (Field, bool) {
	f, ok := byName[name]
	return f, ok
}

// SwapMigrationFields are the version-picker fields whose values follow a
// deleted version to its replacement.
func SwapMigrationFields() []Field {
	return []Field{RCVersions, ApprovedForRelease, Highlight, ImpactsOn}
}
