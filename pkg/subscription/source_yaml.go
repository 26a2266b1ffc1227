package subscription

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type yamlSource struct {
	path string
}

// NewYAMLSource returns a PlanSource reading the catalog from a YAML file.
// The file holds a top-level `plans` list:
//
//	plans:
//	  - id: free
//	    name: Free
//	    interval: none
//	    features:
//	      appointments: 20
//	      services: 3
//	      featured: false
//	  - id: price_pro_monthly
//	    name: Professional
//	    interval: monthly
//	    trial_days: 14
//	    price: {amount: 2900, currency: USD}
//	    features:
//	      appointments: -1
//	      services: -1
//	      featured: true
//	      reminders:
//	        email: true
//	        sms: 100
//
// The catalog is read on Service construction, not per request.
func NewYAMLSource(path string) PlanSource {
	return &yamlSource{path: path}
}

func (s *yamlSource) Load(ctx context.Context) (map[string]Plan, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}

	var doc struct {
		Plans []Plan `yaml:"plans"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}
	if len(doc.Plans) == 0 {
		return nil, errors.Join(ErrFailedToLoadPlans, fmt.Errorf("no plans defined in %s", s.path))
	}

	plans := make(map[string]Plan, len(doc.Plans))
	for _, plan := range doc.Plans {
		if plan.ID == "" {
			return nil, errors.Join(ErrInvalidPlanConfiguration, fmt.Errorf("plan without ID in %s", s.path))
		}
		if _, exists := plans[plan.ID]; exists {
			return nil, errors.Join(ErrInvalidPlanConfiguration, fmt.Errorf("duplicate plan ID %q in %s", plan.ID, s.path))
		}
		plans[plan.ID] = plan
	}
	return plans, nil
}
