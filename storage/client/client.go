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

// Package client implements the restful control plane client of one array.
package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/http/cookiejar"
	"sync"
	"time"

	"huawei-replication-driver/utils/log"
)

const (
	defaultParallelCount = 50

	offLineCode   = -401
	noAuthRequest = "/xx/sessions"
)

var errUnconnected = errors.New("unconnected")

// HTTP is the transport seam, mockable in tests.
type HTTP interface {
	Do(req *http.Request) (*http.Response, error)
}

var newHTTPClient = func() HTTP {
	jar, _ := cookiejar.New(nil)
	return &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
		Jar:     jar,
		Timeout: 60 * time.Second,
	}
}

// Response is the generic envelope of every restful reply.
type Response struct {
	Error map[string]interface{} `json:"error"`
	Data  interface{}            `json:"data,omitempty"`
}

func (resp *Response) errorCode() int64 {
	if resp.Error == nil {
		return 0
	}
	code, ok := resp.Error["code"].(float64)
	if !ok {
		return 0
	}
	return int64(code)
}

// RestClient talks to one array management endpoint. The session state
// (token, device ID) is process wide; ReLogin serializes re-authentication so
// concurrent callers hitting an expired session log in exactly once.
type RestClient struct {
	Client    HTTP
	URL       string
	URLs      []string
	User      string
	Password  string
	BackendID string

	DeviceID string
	Token    string
	SN       string

	reLoginMutex sync.Mutex
	requestSlots chan struct{}
}

// NewRestClient instantiates a client for one array.
func NewRestClient(urls []string, user, password, backendID string) *RestClient {
	return &RestClient{
		URLs:         urls,
		User:         user,
		Password:     password,
		BackendID:    backendID,
		Client:       newHTTPClient(),
		requestSlots: make(chan struct{}, defaultParallelCount),
	}
}

// GetBackendID returns the configured identifier of this array.
func (cli *RestClient) GetBackendID() string {
	return cli.BackendID
}

// Call sends a request, and on a connection or auth failure performs a single
// relogin followed by exactly one resend of the original request.
func (cli *RestClient) Call(ctx context.Context,
	method string, url string, data map[string]interface{}) (Response, error) {
	r, err := cli.BaseCall(ctx, method, url, data)
	if (err != nil && err.Error() == errUnconnected.Error()) ||
		(err == nil && r.errorCode() == offLineCode) {
		log.AddContext(ctx).Infof("Try to relogin and resend request method: %s, url: %s", method, url)

		err = cli.ReLogin(ctx)
		if err == nil {
			r, err = cli.BaseCall(ctx, method, url, data)
		}
	}

	return r, err
}

func (cli *RestClient) getRequest(ctx context.Context,
	method string, url string, data map[string]interface{}) (*http.Request, error) {
	reqURL := cli.URL
	if cli.DeviceID != "" {
		reqURL += "/" + cli.DeviceID
	}
	reqURL += url

	var reqBody io.Reader
	if data != nil {
		reqBytes, err := json.Marshal(data)
		if err != nil {
			log.AddContext(ctx).Errorf("json.Marshal data %v error: %v", data, err)
			return nil, err
		}
		reqBody = bytes.NewReader(reqBytes)
	}

	req, err := http.NewRequest(method, reqURL, reqBody)
	if err != nil {
		log.AddContext(ctx).Errorf("Construct http request error: %v", err)
		return nil, err
	}

	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Content-Type", "application/json")

	if cli.Token != "" {
		req.Header.Set("iBaseToken", cli.Token)
	}

	return req, nil
}

// BaseCall sends one request without the relogin retry.
func (cli *RestClient) BaseCall(ctx context.Context,
	method string, url string, data map[string]interface{}) (Response, error) {
	var r Response

	var req *http.Request
	var err error
	if url != noAuthRequest && url != "/sessions" {
		cli.reLoginMutex.Lock()
		req, err = cli.getRequest(ctx, method, url, data)
		cli.reLoginMutex.Unlock()
	} else {
		req, err = cli.getRequest(ctx, method, url, data)
	}
	if err != nil {
		return r, err
	}

	log.AddContext(ctx).Debugf("Request method: %s, url: %s%s", method, cli.URL, url)

	cli.requestSlots <- struct{}{}
	defer func() { <-cli.requestSlots }()

	resp, err := cli.Client.Do(req)
	if err != nil {
		log.AddContext(ctx).Errorf("Send request method: %s, url: %s%s, error: %v",
			method, cli.URL, url, err)
		return r, errUnconnected
	}
	defer resp.Body.Close()

	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		log.AddContext(ctx).Errorf("Read response data error: %v", err)
		return r, err
	}

	err = json.Unmarshal(body, &r)
	if err != nil {
		log.AddContext(ctx).Errorf("json.Unmarshal data %s error: %v", body, err)
		return r, err
	}

	return r, nil
}

// Get sends a GET request to the array.
func (cli *RestClient) Get(ctx context.Context, url string, data map[string]interface{}) (Response, error) {
	return cli.Call(ctx, "GET", url, data)
}

// Post sends a POST request to the array.
func (cli *RestClient) Post(ctx context.Context, url string, data map[string]interface{}) (Response, error) {
	return cli.Call(ctx, "POST", url, data)
}

// Put sends a PUT request to the array.
func (cli *RestClient) Put(ctx context.Context, url string, data map[string]interface{}) (Response, error) {
	return cli.Call(ctx, "PUT", url, data)
}

// Delete sends a DELETE request to the array.
func (cli *RestClient) Delete(ctx context.Context, url string, data map[string]interface{}) (Response, error) {
	return cli.Call(ctx, "DELETE", url, data)
}

// Login establishes a session, trying the configured URLs in order. The URL
// that worked is sorted to the last slot, so when this connection breaks the
// next login tries the other addresses first.
func (cli *RestClient) Login(ctx context.Context) error {
	data := map[string]interface{}{
		"username": cli.User,
		"password": cli.Password,
		"scope":    "0",
	}

	var resp Response
	var err error

	cli.DeviceID = ""
	cli.Token = ""
	for i, url := range cli.URLs {
		cli.URL = url + "/deviceManager/rest"

		log.AddContext(ctx).Infof("Try to login %s", cli.URL)
		resp, err = cli.BaseCall(ctx, "POST", noAuthRequest, data)
		if err == nil {
			cli.URLs[i], cli.URLs[len(cli.URLs)-1] = cli.URLs[len(cli.URLs)-1], cli.URLs[i]
			break
		} else if err.Error() != errUnconnected.Error() {
			log.AddContext(ctx).Errorf("Login %s error", cli.URL)
			break
		}

		log.AddContext(ctx).Warningf("Login %s connection failure, gonna try another url", cli.URL)
	}

	if err != nil {
		return err
	}

	if code := resp.errorCode(); code != 0 {
		return fmt.Errorf("login %s error: %d", cli.URL, code)
	}

	respData, ok := resp.Data.(map[string]interface{})
	if !ok {
		return fmt.Errorf("login %s response data is invalid", cli.URL)
	}
	cli.DeviceID, _ = respData["deviceid"].(string)
	cli.Token, _ = respData["iBaseToken"].(string)

	log.AddContext(ctx).Infof("Login %s success", cli.URL)
	return nil
}

// Logout closes the current session; failures only get logged.
func (cli *RestClient) Logout(ctx context.Context) {
	resp, err := cli.BaseCall(ctx, "DELETE", "/sessions", nil)
	if err != nil {
		log.AddContext(ctx).Warningf("Logout %s error: %v", cli.URL, err)
		return
	}

	if code := resp.errorCode(); code != 0 {
		log.AddContext(ctx).Warningf("Logout %s error: %d", cli.URL, code)
		return
	}

	log.AddContext(ctx).Infof("Logout %s success", cli.URL)
}

// ReLogin re-authenticates once across concurrent callers. A caller that
// arrives after another one already refreshed the token returns immediately.
func (cli *RestClient) ReLogin(ctx context.Context) error {
	oldToken := cli.Token

	cli.reLoginMutex.Lock()
	defer cli.reLoginMutex.Unlock()

	if cli.Token != "" && oldToken != cli.Token {
		// Another caller finished the relogin already.
		return nil
	} else if cli.Token != "" {
		cli.Logout(ctx)
	}

	if err := cli.Login(ctx); err != nil {
		log.AddContext(ctx).Errorf("Try to relogin error: %v", err)
		return err
	}

	return nil
}

func (cli *RestClient) getResponseDataMap(data interface{}) (map[string]interface{}, error) {
	respData, ok := data.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("the response data is not a map: %v", data)
	}
	return respData, nil
}

func (cli *RestClient) getResponseDataList(data interface{}) ([]interface{}, error) {
	respData, ok := data.([]interface{})
	if !ok {
		return nil, fmt.Errorf("the response data is not a list: %v", data)
	}
	return respData, nil
}

func getString(m map[string]interface{}, key string) string {
	v, _ := m[key].(string)
	return v
}
