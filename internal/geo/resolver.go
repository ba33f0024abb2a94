// Package geo resolves the province → district → sub-district cascade used
// by delivery addresses.
package geo

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/fjod/go_cart/storefront-client/internal/domain"
	"github.com/fjod/go_cart/storefront-client/internal/logger"
)

// Lookup is the reference-data side of the storefront API.
type Lookup interface {
	Provinces(ctx context.Context) ([]domain.Province, error)
	Districts(ctx context.Context, provinceCode int) ([]domain.District, error)
	SubDistricts(ctx context.Context, districtCode int) ([]domain.SubDistrict, error)
}

// Resolver drives a Selection through Lookup. Reference data is cached for
// the resolver's lifetime (one checkout session); concurrent lookups of the
// same key share one request.
type Resolver struct {
	lookup Lookup
	log    *slog.Logger
	sfg    singleflight.Group

	mu           sync.Mutex
	provinces    []domain.Province
	districts    map[int][]domain.District
	subDistricts map[int][]domain.SubDistrict
	sel          Selection
}

func NewResolver(lookup Lookup, log *slog.Logger) *Resolver {
	return &Resolver{
		lookup:       lookup,
		log:          logger.OrDiscard(log),
		districts:    make(map[int][]domain.District),
		subDistricts: make(map[int][]domain.SubDistrict),
	}
}

// Selection returns the current state.
func (r *Resolver) Selection() Selection {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sel
}

func (r *Resolver) Provinces(ctx context.Context) ([]domain.Province, error) {
	r.mu.Lock()
	cached := r.provinces
	r.mu.Unlock()
	if cached != nil {
		return slices.Clone(cached), nil
	}

	v, err, _ := r.sfg.Do("provinces", func() (interface{}, error) {
		provinces, err := r.lookup.Provinces(ctx)
		if err != nil {
			return nil, err
		}
		if provinces == nil {
			provinces = []domain.Province{}
		}
		r.mu.Lock()
		r.provinces = provinces
		r.mu.Unlock()
		return provinces, nil
	})
	if err != nil {
		r.log.Warn("province lookup failed", logger.Traced(ctx), logger.Err(err))
		return nil, fmt.Errorf("list provinces: %w", err)
	}
	return slices.Clone(v.([]domain.Province)), nil
}

// ChooseProvince fetches the province's districts and moves to
// ProvinceChosen. On failure the current selection is untouched.
func (r *Resolver) ChooseProvince(ctx context.Context, code int) (Selection, error) {
	next, err := r.provinceStep(ctx, code)
	if err != nil {
		return r.Selection(), err
	}
	return r.commit(next), nil
}

// ChooseDistrict fetches the district's sub-districts and moves to
// DistrictChosen. The code must be one of the chosen province's districts.
func (r *Resolver) ChooseDistrict(ctx context.Context, code int) (Selection, error) {
	current := r.Selection()
	next, err := r.districtStep(ctx, current, code)
	if err != nil {
		return current, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// The province may have changed while the lookup was running.
	if err := r.sel.CheckDistrict(code); err != nil {
		return r.sel, err
	}
	if r.sel.province.Code != current.province.Code {
		return r.sel, ErrUnknownDistrict
	}
	r.sel = next
	return next, nil
}

// ChooseSubDistrict needs no lookup: the sub-districts came with the
// district.
func (r *Resolver) ChooseSubDistrict(code int) (Selection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	next, err := r.sel.WithSubDistrict(code)
	if err != nil {
		return r.sel, err
	}
	r.sel = next
	return next, nil
}

// Load re-enters the cascade for a stored address, resolving province,
// district and sub-district in order. The result is committed only when all
// three steps succeed.
func (r *Resolver) Load(ctx context.Context, addr domain.Address) (Selection, error) {
	sel, err := r.provinceStep(ctx, addr.ProvinceCode)
	if err == nil {
		sel, err = r.districtStep(ctx, sel, addr.DistrictCode)
	}
	if err == nil {
		sel, err = sel.WithSubDistrict(addr.SubDistrictCode)
	}
	if err != nil {
		r.log.Warn("address reload failed", logger.Traced(ctx),
			slog.String("address_id", addr.ID.String()), logger.Err(err))
		return r.Selection(), fmt.Errorf("load address: %w", err)
	}
	return r.commit(sel), nil
}

func (r *Resolver) commit(sel Selection) Selection {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sel = sel
	return sel
}

func (r *Resolver) provinceStep(ctx context.Context, code int) (Selection, error) {
	provinces, err := r.Provinces(ctx)
	if err != nil {
		return Selection{}, err
	}
	idx := slices.IndexFunc(provinces, func(p domain.Province) bool { return p.Code == code })
	if idx < 0 {
		return Selection{}, ErrUnknownProvince
	}
	districts, err := r.fetchDistricts(ctx, code)
	if err != nil {
		return Selection{}, err
	}
	return Selection{}.WithProvince(provinces[idx], districts), nil
}

func (r *Resolver) districtStep(ctx context.Context, from Selection, code int) (Selection, error) {
	if err := from.CheckDistrict(code); err != nil {
		return from, err
	}
	subs, err := r.fetchSubDistricts(ctx, code)
	if err != nil {
		return from, err
	}
	return from.WithDistrict(code, subs)
}

func (r *Resolver) fetchDistricts(ctx context.Context, provinceCode int) ([]domain.District, error) {
	r.mu.Lock()
	cached, ok := r.districts[provinceCode]
	r.mu.Unlock()
	if ok {
		return cached, nil
	}

	v, err, _ := r.sfg.Do("districts:"+strconv.Itoa(provinceCode), func() (interface{}, error) {
		districts, err := r.lookup.Districts(ctx, provinceCode)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.districts[provinceCode] = districts
		r.mu.Unlock()
		return districts, nil
	})
	if err != nil {
		r.log.Warn("district lookup failed", logger.Traced(ctx),
			slog.Int("province_code", provinceCode), logger.Err(err))
		return nil, fmt.Errorf("list districts: %w", err)
	}
	return v.([]domain.District), nil
}

func (r *Resolver) fetchSubDistricts(ctx context.Context, districtCode int) ([]domain.SubDistrict, error) {
	r.mu.Lock()
	cached, ok := r.subDistricts[districtCode]
	r.mu.Unlock()
	if ok {
		return cached, nil
	}

	v, err, _ := r.sfg.Do("sub_districts:"+strconv.Itoa(districtCode), func() (interface{}, error) {
		subs, err := r.lookup.SubDistricts(ctx, districtCode)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.subDistricts[districtCode] = subs
		r.mu.Unlock()
		return subs, nil
	})
	if err != nil {
		r.log.Warn("sub-district lookup failed", logger.Traced(ctx),
			slog.Int("district_code", districtCode), logger.Err(err))
		return nil, fmt.Errorf("list sub-districts: %w", err)
	}
	return v.([]domain.SubDistrict), nil
}
