package authz

import (
	"context"
	"fmt"
	"sync"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/sirupsen/logrus"
)

// The policy model is fixed: role subjects, department-scoped domains,
// dotted capability objects and lowercase action verbs, with wildcard
// domain and action rows.
const modelText = `
[request_definition]
r = sub, dom, obj, act

[policy_definition]
p = sub, dom, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && (r.dom == p.dom || p.dom == "*") && r.obj == p.obj && (r.act == p.act || p.act == "*")
`

// Config carries everything needed to build a Service.
type Config struct {
	Grants []Grant
	Logger *logrus.Logger
}

func (c Config) validate() error {
	for _, g := range c.Grants {
		if g.Role == "" {
			return configError("grant with empty role")
		}
		if g.Object == "" {
			return configError("grant for role %q with empty object", g.Role)
		}
	}
	return nil
}

// Service evaluates authorization decisions against an in-memory casbin
// enforcer seeded from registered grants.
type Service struct {
	enforcer *casbin.Enforcer
	logger   *logrus.Entry
	mu       sync.RWMutex
}

func NewService(cfg Config) (*Service, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	var logger *logrus.Entry
	if cfg.Logger != nil {
		logger = cfg.Logger.WithField("component", "authz")
	} else {
		logger = logrus.WithField("component", "authz")
	}

	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("authz: failed to parse model: %w", err)
	}
	enf, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("authz: failed to initialize enforcer: %w", err)
	}

	svc := &Service{enforcer: enf, logger: logger}
	if err := svc.AddGrants(cfg.Grants...); err != nil {
		return nil, err
	}
	return svc, nil
}

// AddGrants registers additional policy rows. Modules call this at
// registration time.
func (s *Service) AddGrants(grants ...Grant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range grants {
		domain := g.Domain
		if domain == "" {
			domain = WildcardDomain
		}
		if _, err := s.enforcer.AddPolicy(
			SubjectForRole(g.Role),
			domain,
			g.Object,
			NormalizeAction(g.Action),
		); err != nil {
			return fmt.Errorf("authz: failed to add grant for %q: %w", g.Role, err)
		}
	}
	return nil
}

// Authorize returns a forbidden error if the request is denied.
func (s *Service) Authorize(ctx context.Context, req Request) error {
	allowed, err := s.Check(ctx, req)
	if err != nil {
		return err
	}
	if !allowed {
		s.logger.WithContext(ctx).WithFields(logrus.Fields{
			"subject": req.Subject,
			"domain":  req.Domain,
			"object":  req.Object,
			"action":  req.Action,
		}).Warn("authz denied request")
		return forbiddenError(req)
	}
	return nil
}

// AuthorizeAnyRole allows the request if any of the actor's roles holds
// the capability within the domain.
func (s *Service) AuthorizeAnyRole(ctx context.Context, roles []string, domain, object, action string) error {
	for _, role := range roles {
		req := NewRequest(SubjectForRole(role), domain, object, action)
		allowed, err := s.Check(ctx, req)
		if err != nil {
			return err
		}
		if allowed {
			return nil
		}
	}
	return forbiddenError(NewRequest("", domain, object, action))
}

// Check evaluates a request without turning a deny into an error.
func (s *Service) Check(ctx context.Context, req Request) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res, err := s.enforcer.Enforce(req.Subject, req.Domain, req.Object, req.Action)
	if err != nil {
		return false, fmt.Errorf("authz: enforce failed: %w", err)
	}
	return res, nil
}

var (
	defaultMu      sync.RWMutex
	defaultService *Service
)

// Setup installs the process-wide Service. Called once during server
// assembly before modules register.
func Setup(svc *Service) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultService = svc
}

// Use returns the process-wide Service, building an empty one on first
// use so tests and CLI paths work without explicit setup.
func Use() *Service {
	defaultMu.RLock()
	svc := defaultService
	defaultMu.RUnlock()
	if svc != nil {
		return svc
	}

	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultService == nil {
		built, err := NewService(Config{})
		if err != nil {
			panic(err)
		}
		defaultService = built
	}
	return defaultService
}
