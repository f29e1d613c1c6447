package domain

// TypeName is a well-known issue-type display name. The store may carry any
// subset of these; lookups are case-insensitive by name.
type TypeName string

const (
	TypeReleaseRequest  TypeName = "Release Request"
	TypeIPSBulletin     TypeName = "IPS Bulletin"
	TypeIPSRelease      TypeName = "IPS Release"
	TypeIPSRequirement  TypeName = "IPS Requirement"
	TypeBackporting     TypeName = "Backporting"
	TypeBug             TypeName = "Bug"
	TypeNewFeature      TypeName = "New Feature"
	TypeTask            TypeName = "Task"
	TypeMandatoryUpdate TypeName = "Mandatory Update"
	TypeEnhancement     TypeName = "Enhancement"
	TypeHotfix          TypeName = "Hotfix"
	TypeDocumentation   TypeName = "Documentation"
	TypeEpic            TypeName = "Epic"
	TypeProductCard     TypeName = "Product Card"
	TypeSprint          TypeName = "Sprint"
)

// IncludeLinkTypeName is the issue-link type release tooling depends on.
const IncludeLinkTypeName = "Include"
