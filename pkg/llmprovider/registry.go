// Copyright 2025 The Codur Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package llmprovider

import (
	"fmt"

	"github.com/codur-ai/codur/pkg/registry"
)

// Registry names and resolves Provider instances by LLM profile name,
// reusing the teacher's generic registry.BaseRegistry rather than
// hand-rolling another name->item map (spec §9 "generic Registry[T]").
type Registry struct {
	*registry.BaseRegistry[Provider]
}

// NewRegistry builds an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{BaseRegistry: registry.NewBaseRegistry[Provider]()}
}

// RegisterProvider adds a provider under a profile name.
func (r *Registry) RegisterProvider(name string, p Provider) error {
	if p == nil {
		return fmt.Errorf("llmprovider: provider cannot be nil")
	}
	return r.Register(name, p)
}

// Resolve looks up a provider by profile name, returning a descriptive
// error rather than the registry's generic "not found".
func (r *Registry) Resolve(profile string) (Provider, error) {
	p, ok := r.Get(profile)
	if !ok {
		return nil, fmt.Errorf("llmprovider: no provider registered for profile %q", profile)
	}
	return p, nil
}
