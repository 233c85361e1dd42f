package manufacturing

import "github.com/supplygraph/matching-engine/internal/domain"

// Register adds the manufacturing domain to the registry.
func Register(registry *domain.Registry) error {
	return registry.Register(DomainName, domain.Registration{
		Extractor: NewExtractor(),
		Matcher:   NewMatcher(),
		Validator: NewValidator(),
		Metadata: domain.Metadata{
			DisplayName: "Manufacturing",
			InputTypes:  InputTypes,
			Synonyms:    ProcessVocabulary(),
		},
	})
}
