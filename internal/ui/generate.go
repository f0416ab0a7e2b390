package ui

//go:generate sh -c "cd ../.. && GOOS=js GOARCH=wasm go build -o internal/ui/dist/main.wasm ./cmd/formgui"
//go:generate sh -c "cp \"$(go env GOROOT)/lib/wasm/wasm_exec.js\" dist/wasm_exec.js"
