package model

// Material groups one or more natures describing the constitutive behaviour.
type Material struct {
	Base
	Natures []Nature `json:"natures"`
}

func (m *Material) Ref() Ref { return Ref{Kind: KindMaterial, ID: m.ID} }

// Nature is a closed family: ElasticNature, HyperElasticNature,
// OrthotropicNature and BilinearElasticNature.
type Nature interface {
	nature()
}

// ElasticNature is isotropic linear elasticity.
type ElasticNature struct {
	E   float64 `json:"e"`
	Nu  float64 `json:"nu"`
	Rho float64 `json:"rho"`
	// GE is the hysteretic damping coefficient.
	GE *float64 `json:"ge,omitempty"`
}

// HyperElasticNature is a Mooney-Rivlin material.
type HyperElasticNature struct {
	C10 float64 `json:"c10"`
	C01 float64 `json:"c01"`
	C20 float64 `json:"c20"`
	Rho float64 `json:"rho"`
	K   float64 `json:"k"`
}

// OrthotropicNature is a plane orthotropic ply material.
type OrthotropicNature struct {
	EL   float64  `json:"e_l"`
	ET   float64  `json:"e_t"`
	GLT  float64  `json:"g_lt"`
	GTN  *float64 `json:"g_tn,omitempty"`
	GLN  *float64 `json:"g_ln,omitempty"`
	NuLT float64  `json:"nu_lt"`
	Rho  float64  `json:"rho"`

	XC           *float64 `json:"xc,omitempty"`
	XT           *float64 `json:"xt,omitempty"`
	YC           *float64 `json:"yc,omitempty"`
	YT           *float64 `json:"yt,omitempty"`
	SLT          *float64 `json:"s_lt,omitempty"`
	AlphaL       *float64 `json:"alpha_l,omitempty"`
	AlphaT       *float64 `json:"alpha_t,omitempty"`
	AlphaN       *float64 `json:"alpha_n,omitempty"`
	TempDefAlpha *float64 `json:"temp_def_alpha,omitempty"`
}

// BilinearElasticNature adds linear isotropic hardening to an elastic nature.
type BilinearElasticNature struct {
	SecondarySlope float64 `json:"secondary_slope"`
	ElasticLimit   float64 `json:"elastic_limit"`
}

func (*ElasticNature) nature()         {}
func (*HyperElasticNature) nature()    {}
func (*OrthotropicNature) nature()     {}
func (*BilinearElasticNature) nature() {}

// FindNature returns the first nature of type N held by the material.
func FindNature[N Nature](m *Material) (N, bool) {
	var zero N
	if m == nil {
		return zero, false
	}
	for _, n := range m.Natures {
		if v, ok := n.(N); ok {
			return v, true
		}
	}
	return zero, false
}

// Float returns a pointer to v, for optional coefficients.
func Float(v float64) *float64 { return &v }
