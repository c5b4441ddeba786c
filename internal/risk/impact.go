package risk

import (
	"github.com/AdityaKumar3594/Kishan-Saathi/internal/money"
)

// MaxProtectionBps caps the protection factor at 0.9: even a fully
// insured farmer with deep savings eats at least 10% of a raw hit.
const MaxProtectionBps = 9000

// Protection is the farmer's defensive position at strike time.
type Protection struct {
	Cover         money.Paise // active insurance cover
	SavingsBuffer money.Paise // liquid savings
}

// RawImpact converts a planned percentage into paise against the cash
// held at strike time. Zero when cash is already non-positive; an
// event cannot push a broke farmer further down by percentage.
func RawImpact(cash money.Paise, pctBps int) money.Paise {
	if cash <= 0 {
		return 0
	}
	return cash * money.Paise(pctBps) / 10000
}

// ProtectionFactorBps derives the damage-reduction multiplier in basis
// points, clamped to [0, MaxProtectionBps].
//
// The factor is monotonically non-decreasing in both cover and savings
// buffer: insurance covering the whole raw hit contributes up to 60%,
// a savings buffer of twice the raw hit contributes up to 30%. For
// any two positions A, B with A's cover and savings >= B's pointwise,
// the factor for A is >= the factor for B.
func ProtectionFactorBps(p Protection, raw money.Paise) int {
	if raw <= 0 {
		return 0
	}
	cover := p.Cover
	if cover < 0 {
		cover = 0
	}
	buffer := p.SavingsBuffer
	if buffer < 0 {
		buffer = 0
	}

	coverBps := int64(cover) * 10000 / int64(raw)
	if coverBps > 10000 {
		coverBps = 10000
	}
	bufferBps := int64(buffer) * 10000 / (2 * int64(raw))
	if bufferBps > 10000 {
		bufferBps = 10000
	}

	factor := int(coverBps*6/10 + bufferBps*3/10)
	if factor > MaxProtectionBps {
		factor = MaxProtectionBps
	}
	return factor
}

// ResolveImpact applies protection to a raw impact:
//
//	mitigatedImpact = rawImpact × (1 − protectionFactor)
//
// Better protection never yields a larger mitigated impact.
func ResolveImpact(raw money.Paise, p Protection) (rawOut, mitigated money.Paise) {
	if raw <= 0 {
		return 0, 0
	}
	factor := ProtectionFactorBps(p, raw)
	mitigated = raw * money.Paise(10000-factor) / 10000
	return raw, mitigated
}
