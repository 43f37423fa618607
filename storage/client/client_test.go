/*
 *  Copyright (c) Huawei Technologies Co., Ltd. 2022-2023. All rights reserved.
 *
 *  Licensed under the Apache License, Version 2.0 (the "License");
 *  you may not use this file except in compliance with the License.
 *  You may obtain a copy of the License at
 *
 *       http://www.apache.org/licenses/LICENSE-2.0
 *
 *  Unless required by applicable law or agreed to in writing, software
 *  distributed under the License is distributed on an "AS IS" BASIS,
 *  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *  See the License for the specific language governing permissions and
 *  limitations under the License.
 */

package client

import (
	"context"
	"errors"
	"io/ioutil"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeHTTP scripts the transport seam. Each request is recorded and answered
// by the do function.
type fakeHTTP struct {
	requests []*http.Request
	do       func(req *http.Request) (*http.Response, error)
}

func (f *fakeHTTP) Do(req *http.Request) (*http.Response, error) {
	f.requests = append(f.requests, req)
	return f.do(req)
}

func jsonResponse(body string) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       ioutil.NopCloser(strings.NewReader(body)),
	}
}

const loginBody = `{"data":{"deviceid":"dev-1","iBaseToken":"token-1"},"error":{"code":0}}`
const okBody = `{"data":{},"error":{"code":0}}`

func newTestClient(do func(req *http.Request) (*http.Response, error)) (*RestClient, *fakeHTTP) {
	transport := &fakeHTTP{do: do}
	cli := NewRestClient([]string{"https://array-1:8088", "https://array-2:8088"},
		"admin", "secret", "backend-a")
	cli.Client = transport
	return cli, transport
}

func TestLoginTriesNextURLOnConnectionFailure(t *testing.T) {
	cli, _ := newTestClient(func(req *http.Request) (*http.Response, error) {
		if strings.Contains(req.URL.Host, "array-1") {
			return nil, errors.New("connection refused")
		}
		return jsonResponse(loginBody), nil
	})

	err := cli.Login(context.TODO())

	require.NoError(t, err)
	assert.Equal(t, "dev-1", cli.DeviceID)
	assert.Equal(t, "token-1", cli.Token)
	assert.Contains(t, cli.URL, "array-2")
	// The url that worked is sorted last so the next login rotates.
	assert.Equal(t, "https://array-2:8088", cli.URLs[len(cli.URLs)-1])
}

func TestLoginStopsOnAuthenticationError(t *testing.T) {
	calls := 0
	cli, _ := newTestClient(func(req *http.Request) (*http.Response, error) {
		calls++
		return jsonResponse(`{"data":{},"error":{"code":1077949061}}`), nil
	})

	err := cli.Login(context.TODO())

	require.Error(t, err)
	// A rejected credential must not be retried against the other urls.
	assert.Equal(t, 1, calls)
}

func TestCallReloginsOnceOnExpiredSession(t *testing.T) {
	var sequence []string
	cli, _ := newTestClient(nil)

	transport := cli.Client.(*fakeHTTP)
	transport.do = func(req *http.Request) (*http.Response, error) {
		switch {
		case strings.HasSuffix(req.URL.Path, "/xx/sessions"):
			sequence = append(sequence, "login")
			return jsonResponse(loginBody), nil
		case strings.HasSuffix(req.URL.Path, "/lun/1"):
			sequence = append(sequence, "get")
			if len(sequence) == 2 {
				// First data request hits an expired session.
				return jsonResponse(`{"data":{},"error":{"code":-401}}`), nil
			}
			return jsonResponse(okBody), nil
		default:
			return jsonResponse(okBody), nil
		}
	}

	require.NoError(t, cli.Login(context.TODO()))

	resp, err := cli.Get(context.TODO(), "/lun/1", nil)

	require.NoError(t, err)
	assert.Equal(t, int64(0), resp.errorCode())
	assert.Equal(t, []string{"login", "get", "login", "get"}, sequence)
}

func TestCallReloginsOnConnectionLoss(t *testing.T) {
	broken := true
	cli, _ := newTestClient(nil)

	transport := cli.Client.(*fakeHTTP)
	transport.do = func(req *http.Request) (*http.Response, error) {
		if strings.HasSuffix(req.URL.Path, "/xx/sessions") {
			broken = false
			return jsonResponse(loginBody), nil
		}
		if broken {
			return nil, errors.New("connection reset")
		}
		return jsonResponse(okBody), nil
	}

	resp, err := cli.Get(context.TODO(), "/lun/1", nil)

	require.NoError(t, err)
	assert.Equal(t, int64(0), resp.errorCode())
}

func TestRequestCarriesTokenAndDeviceID(t *testing.T) {
	cli, transport := newTestClient(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(loginBody), nil
	})

	require.NoError(t, cli.Login(context.TODO()))
	_, err := cli.Get(context.TODO(), "/lun/1", nil)
	require.NoError(t, err)

	last := transport.requests[len(transport.requests)-1]
	assert.Equal(t, "token-1", last.Header.Get("iBaseToken"))
	assert.Contains(t, last.URL.Path, "/dev-1/lun/1")
}

func TestGetLunByIDAbsorbsNotExistError(t *testing.T) {
	cli, _ := newTestClient(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(`{"data":{},"error":{"code":1077936859}}`), nil
	})

	lun, err := cli.GetLunByID(context.TODO(), "11")

	require.NoError(t, err)
	assert.Nil(t, lun)
}

func TestGetLunByIDParsesAttributes(t *testing.T) {
	body := `{"data":{"ID":"11","NAME":"vol1","PARENTID":"0","CAPACITY":"2097152",` +
		`"WWN":"wwn-1","RUNNINGSTATUS":"27","HEALTHSTATUS":"1","ALLOCTYPE":"1"},"error":{"code":0}}`
	cli, _ := newTestClient(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(body), nil
	})

	lun, err := cli.GetLunByID(context.TODO(), "11")

	require.NoError(t, err)
	require.NotNil(t, lun)
	assert.Equal(t, "vol1", lun.Name)
	assert.Equal(t, int64(2097152), lun.Capacity)
	assert.Equal(t, "27", lun.RunningStatus)
}

func TestDeleteLunAbsorbsNotExistError(t *testing.T) {
	cli, _ := newTestClient(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(`{"data":{},"error":{"code":1077936859}}`), nil
	})

	err := cli.DeleteLun(context.TODO(), "11")

	assert.NoError(t, err)
}

func TestGetPairByIDAbsorbsNotExistError(t *testing.T) {
	cli, _ := newTestClient(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(`{"data":{},"error":{"code":1077937923}}`), nil
	})

	pair, err := cli.GetPairByID(context.TODO(), "p1")

	require.NoError(t, err)
	assert.Nil(t, pair)
}

func TestGetPairByIDParsesPrimaryFlag(t *testing.T) {
	body := `{"data":{"ID":"p1","LOCALRESID":"11","REMOTERESID":"22","ISPRIMARY":"true",` +
		`"RUNNINGSTATUS":"1","HEALTHSTATUS":"1","SECRESACCESS":"1"},"error":{"code":0}}`
	cli, _ := newTestClient(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(body), nil
	})

	pair, err := cli.GetPairByID(context.TODO(), "p1")

	require.NoError(t, err)
	require.NotNil(t, pair)
	assert.True(t, pair.IsPrimary)
	assert.Equal(t, "1", pair.RunningStatus)
	assert.Equal(t, "1", pair.SecResAccess)
}

func TestGetMetroPairsInGroupFilters(t *testing.T) {
	var requestedPath string
	body := `{"data":[{"ID":"m1","CGID":"cg1","RUNNINGSTATUS":"1","HEALTHSTATUS":"1"},` +
		`{"ID":"m2","CGID":"cg1","RUNNINGSTATUS":"100","HEALTHSTATUS":"1"}],"error":{"code":0}}`
	cli, _ := newTestClient(func(req *http.Request) (*http.Response, error) {
		requestedPath = req.URL.Path + "?" + req.URL.RawQuery
		return jsonResponse(body), nil
	})

	pairs, err := cli.GetMetroPairsInGroup(context.TODO(), "cg1")

	require.NoError(t, err)
	assert.Len(t, pairs, 2)
	assert.Contains(t, requestedPath, "CGID::cg1")
}
