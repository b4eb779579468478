//go:build js && wasm

package storage

import (
	"fmt"
	"syscall/js"
)

// BrowserNamespace binds a Web Storage object (window.localStorage or
// window.sessionStorage). Quota is enforced by the browser.
type BrowserNamespace struct {
	v js.Value
}

func openNamespace(backend string, _ Options) (ns Namespace, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = jsError(r)
		}
	}()

	v := js.Global().Get(backend)
	if v.IsUndefined() || v.IsNull() {
		return nil, fmt.Errorf("host does not provide %s", backend)
	}
	return &BrowserNamespace{v: v}, nil
}

// call invokes method and turns a thrown JS exception into an error.
func (b *BrowserNamespace) call(method string, args ...any) (res js.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = jsError(r)
		}
	}()
	return b.v.Call(method, args...), nil
}

func jsError(r any) error {
	jsErr, ok := r.(js.Error)
	if !ok {
		return fmt.Errorf("web storage: %v", r)
	}
	if jsErr.Value.Get("name").String() == "QuotaExceededError" {
		return fmt.Errorf("%w: %s", ErrQuotaExceeded, jsErr.Error())
	}
	return jsErr
}

// GetItem returns the value stored at key.
func (b *BrowserNamespace) GetItem(key string) (string, bool, error) {
	res, err := b.call("getItem", key)
	if err != nil {
		return "", false, err
	}
	if res.IsNull() {
		return "", false, nil
	}
	return res.String(), true, nil
}

// SetItem stores value at key.
func (b *BrowserNamespace) SetItem(key, value string) error {
	_, err := b.call("setItem", key, value)
	return err
}

// RemoveItem deletes key.
func (b *BrowserNamespace) RemoveItem(key string) error {
	_, err := b.call("removeItem", key)
	return err
}

// Clear removes every entry.
func (b *BrowserNamespace) Clear() error {
	_, err := b.call("clear")
	return err
}

// Length returns the number of entries.
func (b *BrowserNamespace) Length() (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = jsError(r)
		}
	}()
	return b.v.Get("length").Int(), nil
}

// Key returns the index-th key in the browser's enumeration order.
func (b *BrowserNamespace) Key(index int) (string, bool, error) {
	res, err := b.call("key", index)
	if err != nil {
		return "", false, err
	}
	if res.IsNull() {
		return "", false, nil
	}
	return res.String(), true, nil
}
